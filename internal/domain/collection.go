package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrMetricsUnavailable = errors.New("metrics unavailable")
)

// ResolvedCollection is the canonical identity of an NFT collection.
// Chain is kept exactly as the analytics provider reported it.
type ResolvedCollection struct {
	Name    string
	Chain   string
	Address string
}

type CollectionListing struct {
	Name    string
	Chain   string
	Address string
}

// CollectionPage is one page of the ranked listing. More reports whether the
// upstream page was full, even when incomplete rows were dropped from Listings.
type CollectionPage struct {
	Listings []CollectionListing
	More     bool
}

type CollectionMetrics struct {
	FloorPrice *decimal.Decimal
	Volume     *decimal.Decimal
	Sales      *decimal.Decimal
	Holders    *decimal.Decimal
	MarketCap  *decimal.Decimal
}

type MarketTrend struct {
	Volume       *decimal.Decimal
	VolumeChange *decimal.Decimal
	Sales        *decimal.Decimal
	SalesChange  *decimal.Decimal
	Traders      *decimal.Decimal
	TimeRange    string
}

type AnalyticsClient interface {
	SearchCollections(ctx context.Context, name string) ([]CollectionListing, error)
	// ListCollections returns one page of collections ranked by volume, page starting at 0.
	ListCollections(ctx context.Context, page, pageSize int) (CollectionPage, error)
	GetCollectionMetrics(ctx context.Context, chain, address string) (*CollectionMetrics, error)
	GetMarketTrend(ctx context.Context) (*MarketTrend, error)
}

type CollectionCache interface {
	Get(ctx context.Context, key string) (*ResolvedCollection, bool, error)
	Set(ctx context.Context, key string, collection ResolvedCollection, ttl time.Duration) error
}

// NormalizeCollectionName is the lookup key used for matching and caching.
func NormalizeCollectionName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
