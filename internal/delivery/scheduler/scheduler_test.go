package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NasaVasa/mira/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) EvaluateBatch(context.Context) (int, error) {
	r.calls.Add(1)
	return 2, r.err
}

func TestNew_RejectsInvalidSchedule(t *testing.T) {
	_, err := New("every now and then", &countingRunner{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunOnce_LogsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "success", message: "scheduled alert check complete"},
		{name: "in progress", err: usecase.ErrBatchInProgress, message: "scheduled alert check skipped, batch in progress"},
		{name: "failure", err: errors.New("db down"), message: "scheduled alert check failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			runner := &countingRunner{err: tt.err}
			s, err := New("@every 1h", runner, zap.New(core))
			require.NoError(t, err)

			s.RunOnce(context.Background())

			assert.Equal(t, int32(1), runner.calls.Load())
			assert.Equal(t, 1, logs.FilterMessage(tt.message).Len())
		})
	}
}

func TestStart_RunsOnScheduleUntilCancelled(t *testing.T) {
	runner := &countingRunner{}
	s, err := New("@every 1s", runner, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
