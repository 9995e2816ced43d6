package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

var ErrEmptyResponse = errors.New("gemini returned an empty response")

func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// Model is one named Gemini model bound to a shared client.
type Model struct {
	client      *genai.Client
	name        string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

func NewModel(client *genai.Client, name string, temperature float32, timeout time.Duration, logger *zap.Logger) *Model {
	return &Model{client: client, name: name, temperature: temperature, timeout: timeout, logger: logger}
}

func (m *Model) Generate(ctx context.Context, prompt string, jsonOutput bool) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(m.temperature)}
	if jsonOutput {
		config.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	response, err := m.client.Models.GenerateContent(ctx, m.name, genai.Text(prompt), config)
	if err != nil {
		m.logger.Warn("gemini generate failed", zap.String("model", m.name), zap.Error(err))
		return "", err
	}
	m.logger.Debug("gemini generate complete", zap.String("model", m.name), zap.Duration("duration", time.Since(start)))

	text := strings.TrimSpace(response.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
