package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/NasaVasa/mira/internal/usecase"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type BatchRunner interface {
	EvaluateBatch(ctx context.Context) (int, error)
}

// Scheduler runs the alert batch on a cron schedule inside the process.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	runner   BatchRunner
	logger   *zap.Logger
}

func New(schedule string, runner BatchRunner, logger *zap.Logger) (*Scheduler, error) {
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid alert check schedule %q: %w", schedule, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger}))),
		schedule: parsed,
		runner:   runner,
		logger:   logger,
	}, nil
}

// Start runs the schedule until ctx is done and waits for a running batch to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.RunOnce(ctx) }))
	s.cron.Start()
	s.logger.Info("alert scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("alert scheduler stopped")
	return nil
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	sent, err := s.runner.EvaluateBatch(ctx)
	switch {
	case errors.Is(err, usecase.ErrBatchInProgress):
		s.logger.Info("scheduled alert check skipped, batch in progress")
	case err != nil:
		s.logger.Error("scheduled alert check failed", zap.Error(err))
	default:
		s.logger.Info("scheduled alert check complete", zap.Int("notifications_sent", sent))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
