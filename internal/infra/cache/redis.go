package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
	dialTimeout  = 5 * time.Second
)

// NewRedis parses url, applies the client timeouts and checks connectivity.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout
	opts.DialTimeout = dialTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
