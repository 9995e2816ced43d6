package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/NasaVasa/mira/internal/domain"
	"go.uber.org/zap"
)

type ResolverConfig struct {
	MaxPages int
	PageSize int
	CacheTTL time.Duration
}

// EntityResolver maps a free-text collection name to its canonical identity.
// Every failure, upstream or not, surfaces as domain.ErrCollectionNotFound.
type EntityResolver struct {
	analytics domain.AnalyticsClient
	cache     domain.CollectionCache
	cfg       ResolverConfig
	logger    *zap.Logger
}

// NewEntityResolver builds a resolver; cache may be nil.
func NewEntityResolver(analytics domain.AnalyticsClient, cache domain.CollectionCache, cfg ResolverConfig, logger *zap.Logger) *EntityResolver {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 50
	}
	return &EntityResolver{analytics: analytics, cache: cache, cfg: cfg, logger: logger}
}

func (r *EntityResolver) Resolve(ctx context.Context, name string) (*domain.ResolvedCollection, error) {
	key := domain.NormalizeCollectionName(name)
	if key == "" {
		return nil, domain.ErrCollectionNotFound
	}

	if cached := r.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	collection, ok := r.search(ctx, key)
	if !ok {
		collection, ok = r.scan(ctx, key)
	}
	if !ok {
		r.logger.Info("collection not resolved", zap.String("name", name))
		return nil, domain.ErrCollectionNotFound
	}

	r.toCache(ctx, key, *collection)
	return collection, nil
}

func (r *EntityResolver) search(ctx context.Context, key string) (*domain.ResolvedCollection, bool) {
	results, err := r.analytics.SearchCollections(ctx, strings.TrimSpace(key))
	if err != nil {
		r.logger.Warn("collection search failed, falling back to listing scan", zap.String("name", key), zap.Error(err))
		return nil, false
	}
	for _, listing := range results {
		if domain.NormalizeCollectionName(listing.Name) == key {
			return toResolved(listing), true
		}
	}
	return nil, false
}

// scan walks the volume-ranked listing. An exact match ends the scan at once;
// otherwise the first substring match in ranking order wins. The scan ends
// early only when the upstream page was short.
func (r *EntityResolver) scan(ctx context.Context, key string) (*domain.ResolvedCollection, bool) {
	var partial *domain.ResolvedCollection
	for page := 0; page < r.cfg.MaxPages; page++ {
		result, err := r.analytics.ListCollections(ctx, page, r.cfg.PageSize)
		if err != nil {
			r.logger.Warn("collection listing failed", zap.String("name", key), zap.Int("page", page), zap.Error(err))
			return nil, false
		}
		for _, listing := range result.Listings {
			candidate := domain.NormalizeCollectionName(listing.Name)
			if candidate == key {
				return toResolved(listing), true
			}
			if partial == nil && strings.Contains(candidate, key) {
				partial = toResolved(listing)
			}
		}
		if !result.More {
			break
		}
	}
	return partial, partial != nil
}

func (r *EntityResolver) fromCache(ctx context.Context, key string) *domain.ResolvedCollection {
	if r.cache == nil {
		return nil
	}
	collection, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("collection cache read failed", zap.String("name", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return collection
}

func (r *EntityResolver) toCache(ctx context.Context, key string, collection domain.ResolvedCollection) {
	if r.cache == nil || r.cfg.CacheTTL <= 0 {
		return
	}
	if err := r.cache.Set(ctx, key, collection, r.cfg.CacheTTL); err != nil {
		r.logger.Warn("collection cache write failed", zap.String("name", key), zap.Error(err))
	}
}

func toResolved(listing domain.CollectionListing) *domain.ResolvedCollection {
	return &domain.ResolvedCollection{Name: listing.Name, Chain: listing.Chain, Address: listing.Address}
}
