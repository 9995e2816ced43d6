package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BatchLock is a single-holder lock shared by every process using the same Redis.
type BatchLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

func NewBatchLock(client redis.Cmdable, key string, ttl time.Duration, logger *zap.Logger) *BatchLock {
	return &BatchLock{client: client, key: key, ttl: ttl, logger: logger}
}

func (l *BatchLock) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// The caller's context may already be cancelled; release must still run.
		releaseCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.Warn("failed to release batch lock", zap.String("key", l.key), zap.Error(err))
		}
	}
	return release, true, nil
}
