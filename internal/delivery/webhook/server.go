package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"time"

	"github.com/NasaVasa/mira/internal/usecase"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	CheckAlertsPath = "/tasks/check-alerts"
	SecretHeader    = "X-Trigger-Secret"

	shutdownTimeout = 10 * time.Second
)

type BatchRunner interface {
	EvaluateBatch(ctx context.Context) (int, error)
}

type checkAlertsResponse struct {
	NotificationsSent int `json:"notifications_sent"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the alert batch to an external scheduler, gated by a shared secret.
type Server struct {
	addr   string
	secret []byte
	runner BatchRunner
	logger *zap.Logger
	server *fasthttp.Server
}

func NewServer(addr, secret string, runner BatchRunner, logger *zap.Logger) *Server {
	s := &Server{addr: addr, secret: []byte(secret), runner: runner, logger: logger}
	s.server = &fasthttp.Server{
		Handler:      s.handle,
		Name:         "mira",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}
	return s
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("trigger endpoint listening", zap.String("addr", s.addr))
		errCh <- s.server.ListenAndServe(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.ShutdownWithContext(shutdownCtx); err != nil {
		s.logger.Warn("trigger endpoint shutdown failed", zap.Error(err))
	}
	return <-errCh
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	if string(ctx.Path()) != CheckAlertsPath {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	if !ctx.IsPost() {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, fasthttp.MethodPost)
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}

	provided := ctx.Request.Header.Peek(SecretHeader)
	if len(s.secret) == 0 || subtle.ConstantTimeCompare(provided, s.secret) != 1 {
		s.logger.Warn("rejected unauthorized alert trigger", zap.String("remote_addr", ctx.RemoteIP().String()))
		writeJSON(ctx, fasthttp.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	sent, err := s.runner.EvaluateBatch(ctx)
	if err != nil {
		if errors.Is(err, usecase.ErrBatchInProgress) {
			s.logger.Info("alert trigger skipped, batch in progress")
			writeJSON(ctx, fasthttp.StatusConflict, errorResponse{Error: "batch in progress"})
			return
		}
		s.logger.Error("alert batch failed", zap.Error(err))
		writeJSON(ctx, fasthttp.StatusInternalServerError, errorResponse{Error: "alert batch failed"})
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, checkAlertsResponse{NotificationsSent: sent})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}
