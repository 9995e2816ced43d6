package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/NasaVasa/mira/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type fakeRunner struct {
	calls int
	sent  int
	err   error
}

func (f *fakeRunner) EvaluateBatch(context.Context) (int, error) {
	f.calls++
	return f.sent, f.err
}

func request(method, path, secret string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if secret != "" {
		ctx.Request.Header.Set(SecretHeader, secret)
	}
	return ctx
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		secret    string
		runner    *fakeRunner
		status    int
		body      string
		evaluated bool
	}{
		{
			name:      "success",
			method:    fasthttp.MethodPost,
			path:      CheckAlertsPath,
			secret:    "s3cret",
			runner:    &fakeRunner{sent: 3},
			status:    fasthttp.StatusOK,
			body:      `{"notifications_sent":3}`,
			evaluated: true,
		},
		{
			name:   "wrong secret",
			method: fasthttp.MethodPost,
			path:   CheckAlertsPath,
			secret: "guess",
			runner: &fakeRunner{},
			status: fasthttp.StatusUnauthorized,
			body:   `{"error":"unauthorized"}`,
		},
		{
			name:   "missing secret",
			method: fasthttp.MethodPost,
			path:   CheckAlertsPath,
			runner: &fakeRunner{},
			status: fasthttp.StatusUnauthorized,
			body:   `{"error":"unauthorized"}`,
		},
		{
			name:      "batch in progress",
			method:    fasthttp.MethodPost,
			path:      CheckAlertsPath,
			secret:    "s3cret",
			runner:    &fakeRunner{err: usecase.ErrBatchInProgress},
			status:    fasthttp.StatusConflict,
			body:      `{"error":"batch in progress"}`,
			evaluated: true,
		},
		{
			name:      "load failure",
			method:    fasthttp.MethodPost,
			path:      CheckAlertsPath,
			secret:    "s3cret",
			runner:    &fakeRunner{err: errors.New("db down")},
			status:    fasthttp.StatusInternalServerError,
			body:      `{"error":"alert batch failed"}`,
			evaluated: true,
		},
		{
			name:   "wrong method",
			method: fasthttp.MethodGet,
			path:   CheckAlertsPath,
			secret: "s3cret",
			runner: &fakeRunner{},
			status: fasthttp.StatusMethodNotAllowed,
		},
		{
			name:   "unknown path",
			method: fasthttp.MethodPost,
			path:   "/tasks/other",
			secret: "s3cret",
			runner: &fakeRunner{},
			status: fasthttp.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(":0", "s3cret", tt.runner, zap.NewNop())
			ctx := request(tt.method, tt.path, tt.secret)

			server.handle(ctx)

			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			if tt.body != "" {
				assert.JSONEq(t, tt.body, string(ctx.Response.Body()))
			}
			if tt.evaluated {
				assert.Equal(t, 1, tt.runner.calls)
			} else {
				assert.Zero(t, tt.runner.calls)
			}
		})
	}
}

func TestHandle_EmptyConfiguredSecretRejectsEverything(t *testing.T) {
	runner := &fakeRunner{}
	server := NewServer(":0", "", runner, zap.NewNop())
	ctx := request(fasthttp.MethodPost, CheckAlertsPath, "")

	server.handle(ctx)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Zero(t, runner.calls)
}
