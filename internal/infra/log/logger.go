package log

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "mira"

// NewLogger builds the JSON logger shared by every component. Sampling is
// disabled: each alert decision is logged.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": serviceName}
	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// parseLevel falls back to info for anything zap does not recognize.
// Levels above error are not allowed so alerts are never silenced.
func parseLevel(level string) zapcore.Level {
	text := strings.ToLower(strings.TrimSpace(level))
	if text == "warning" {
		text = "warn"
	}
	parsed, err := zapcore.ParseLevel(text)
	if err != nil || parsed > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return parsed
}
