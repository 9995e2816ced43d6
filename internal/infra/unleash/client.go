package unleash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NasaVasa/mira/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultCurrency  = "eth"
	defaultTimeRange = "24h"
	metricsFields    = "floor_price,volume,sales,holders,marketcap"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, limiter *rate.Limiter, logger *zap.Logger) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger,
	}
}

func (c *Client) SearchCollections(ctx context.Context, name string) ([]domain.CollectionListing, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("metrics", "volume")
	params.Set("sort_by", "volume")
	params.Set("sort_order", "desc")
	params.Set("time_range", defaultTimeRange)

	var payload collectionsResponse
	if err := c.get(ctx, "/collections", params, &payload); err != nil {
		return nil, err
	}
	return mapCollections(payload), nil
}

func (c *Client) ListCollections(ctx context.Context, page, pageSize int) (domain.CollectionPage, error) {
	params := url.Values{}
	params.Set("metrics", "volume")
	params.Set("sort_by", "volume")
	params.Set("sort_order", "desc")
	params.Set("time_range", defaultTimeRange)
	params.Set("offset", strconv.Itoa(page*pageSize))
	params.Set("limit", strconv.Itoa(pageSize))

	var payload collectionsResponse
	if err := c.get(ctx, "/collections", params, &payload); err != nil {
		return domain.CollectionPage{}, err
	}
	return domain.CollectionPage{
		Listings: mapCollections(payload),
		More:     len(payload.Collections) >= pageSize,
	}, nil
}

func (c *Client) GetCollectionMetrics(ctx context.Context, chain, address string) (*domain.CollectionMetrics, error) {
	endpoint := fmt.Sprintf("/collection/%s/%s/metrics", url.PathEscape(chain), url.PathEscape(address))
	params := url.Values{}
	params.Set("metrics", metricsFields)
	params.Set("currency", defaultCurrency)
	params.Set("time_range", defaultTimeRange)

	var payload metricsResponse
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrMetricsUnavailable
		}
		return nil, err
	}

	values := payload.metricsPayload
	if payload.Stats != nil {
		values = *payload.Stats
	}
	return &domain.CollectionMetrics{
		FloorPrice: values.FloorPrice.ptr(),
		Volume:     values.Volume.ptr(),
		Sales:      values.Sales.ptr(),
		Holders:    values.Holders.ptr(),
		MarketCap:  values.MarketCap.ptr(),
	}, nil
}

func (c *Client) GetMarketTrend(ctx context.Context) (*domain.MarketTrend, error) {
	params := url.Values{}
	params.Set("currency", defaultCurrency)
	params.Set("time_range", defaultTimeRange)

	var payload trendResponse
	if err := c.get(ctx, "/market/trend", params, &payload); err != nil {
		return nil, err
	}

	values := payload.trendPayload
	if payload.Stats != nil {
		values = *payload.Stats
	}
	return &domain.MarketTrend{
		Volume:       values.Volume.ptr(),
		VolumeChange: values.VolumeChange.ptr(),
		Sales:        values.Sales.ptr(),
		SalesChange:  values.SalesChange.ptr(),
		Traders:      values.Traders.ptr(),
		TimeRange:    defaultTimeRange,
	}, nil
}

var errNotFound = fmt.Errorf("unleash: %w", domain.ErrNotFound)

func (c *Client) get(ctx context.Context, path string, params url.Values, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	request.Header.Set("accept", "application/json")
	request.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	c.logger.Debug("unleash request start", zap.String("path", path))
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Error("unleash request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer response.Body.Close()

	c.logger.Info(
		"unleash request complete",
		zap.String("path", path),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("unleash error: status %d", response.StatusCode)
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func mapCollections(payload collectionsResponse) []domain.CollectionListing {
	listings := make([]domain.CollectionListing, 0, len(payload.Collections))
	for _, item := range payload.Collections {
		name, chain, address := item.Name, item.Blockchain, item.ContractAddress
		chainID := item.ChainID
		if item.Metadata != nil {
			if name == "" {
				name = item.Metadata.Name
			}
			if chain == "" {
				chain = item.Metadata.Blockchain
			}
			if address == "" {
				address = item.Metadata.ContractAddress
			}
			if chainID == "" {
				chainID = item.Metadata.ChainID
			}
		}
		if chain == "" {
			chain = string(chainID)
		}
		if name == "" || chain == "" || address == "" {
			continue
		}
		listings = append(listings, domain.CollectionListing{Name: name, Chain: chain, Address: address})
	}
	return listings
}
