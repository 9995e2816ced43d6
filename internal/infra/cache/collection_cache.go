package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/redis/go-redis/v9"
)

const collectionKeyPrefix = "mira:collection:"

type CollectionCache struct {
	client redis.Cmdable
}

func NewCollectionCache(client redis.Cmdable) *CollectionCache {
	return &CollectionCache{client: client}
}

type cachedCollection struct {
	Name    string `json:"name"`
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

func (c *CollectionCache) Get(ctx context.Context, key string) (*domain.ResolvedCollection, bool, error) {
	data, err := c.client.Get(ctx, collectionKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cached cachedCollection
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, err
	}
	return &domain.ResolvedCollection{Name: cached.Name, Chain: cached.Chain, Address: cached.Address}, true, nil
}

func (c *CollectionCache) Set(ctx context.Context, key string, collection domain.ResolvedCollection, ttl time.Duration) error {
	data, err := json.Marshal(cachedCollection{Name: collection.Name, Chain: collection.Chain, Address: collection.Address})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, collectionKeyPrefix+key, data, ttl).Err()
}
