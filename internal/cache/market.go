// Package cache implements the TTL cache between the signal pipeline and the
// upstream exchange sources. Entries are kept in Redis without expiry so an
// expired funding entry can still serve as a stale fallback.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
)

const (
	DefaultTTL          = 5 * time.Minute
	defaultFetchTimeout = 10 * time.Second
)

// CandleSource fetches the limit most recent candles, oldest first. An empty
// slice means the upstream has no data for the pair.
type CandleSource interface {
	Candles(ctx context.Context, symbol, timeframe string, limit int) ([]*domain.Candle, error)
}

// FundingSource fetches the current funding snapshot for a symbol.
type FundingSource interface {
	FundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error)
}

type candleEntry struct {
	Candles   []*domain.Candle `json:"candles"`
	FetchedAt time.Time        `json:"fetched_at"`
}

type fundingEntry struct {
	Rate      *domain.FundingRate `json:"rate"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// MarketCache owns the key -> (value, fetch timestamp) mapping and the TTL
// policy for both upstream fetches. Concurrent misses on the same key share a
// single upstream call.
type MarketCache struct {
	rdb            *redis.Client
	tracer         trace.Tracer
	candleSources  map[string]CandleSource
	fundingSources map[string]FundingSource
	candleTTL      time.Duration
	fundingTTL     time.Duration
	fetchTimeout   time.Duration
	group          singleflight.Group
	now            func() time.Time
}

func NewMarketCache(rdb *redis.Client, tracer trace.Tracer, candleTTL, fundingTTL time.Duration) *MarketCache {
	if candleTTL <= 0 {
		candleTTL = DefaultTTL
	}
	if fundingTTL <= 0 {
		fundingTTL = DefaultTTL
	}
	return &MarketCache{
		rdb:            rdb,
		tracer:         tracer,
		candleSources:  make(map[string]CandleSource),
		fundingSources: make(map[string]FundingSource),
		candleTTL:      candleTTL,
		fundingTTL:     fundingTTL,
		fetchTimeout:   defaultFetchTimeout,
		now:            time.Now,
	}
}

func (c *MarketCache) RegisterCandleSource(exchange string, src CandleSource) {
	c.candleSources[exchange] = src
}

func (c *MarketCache) RegisterFundingSource(exchange string, src FundingSource) {
	c.fundingSources[exchange] = src
}

// Candles returns the cached series for the exact (exchange, symbol,
// timeframe, limit) tuple, fetching upstream on miss or expiry. Candle
// freshness matters for signal correctness, so a failed refresh propagates
// instead of falling back to a stale entry.
func (c *MarketCache) Candles(ctx context.Context, symbol, timeframe string, limit int, exchange string) ([]*domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "market-cache.candles")
	defer span.End()

	key := candleKey(exchange, symbol, timeframe, limit)
	if entry, ok := c.readCandles(ctx, key); ok && c.fresh(entry.FetchedAt, c.candleTTL) {
		return entry.Candles, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have refreshed the entry already.
		if entry, ok := c.readCandles(ctx, key); ok && c.fresh(entry.FetchedAt, c.candleTTL) {
			return entry.Candles, nil
		}

		src, ok := c.candleSources[exchange]
		if !ok {
			return nil, fmt.Errorf("candles %s: %w", exchange, domain.ErrUnsupportedExchange)
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()

		candles, err := src.Candles(fetchCtx, symbol, timeframe, limit)
		if err != nil {
			return nil, fmt.Errorf("candles %s %s %s: %w: %w", symbol, timeframe, exchange, domain.ErrUpstreamFailure, err)
		}
		if len(candles) == 0 {
			return nil, fmt.Errorf("candles %s %s %s: %w", symbol, timeframe, exchange, domain.ErrDataUnavailable)
		}

		c.store(ctx, key, candleEntry{Candles: candles, FetchedAt: c.now().UTC()})
		return candles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Candle), nil
}

// FundingRate returns the cached funding snapshot, fetching on miss or
// expiry. Funding drifts slowly, so a failed refresh falls back to the last
// cached value even when expired; the failure only propagates when no cached
// value exists at all.
func (c *MarketCache) FundingRate(ctx context.Context, symbol, exchange string) (*domain.FundingRate, error) {
	ctx, span := c.tracer.Start(ctx, "market-cache.funding-rate")
	defer span.End()

	src, ok := c.fundingSources[exchange]
	if !ok {
		return nil, fmt.Errorf("funding %s: %w", exchange, domain.ErrUnsupportedExchange)
	}

	key := fundingKey(exchange, symbol)
	if entry, ok := c.readFunding(ctx, key); ok && c.fresh(entry.FetchedAt, c.fundingTTL) {
		return entry.Rate, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if entry, ok := c.readFunding(ctx, key); ok && c.fresh(entry.FetchedAt, c.fundingTTL) {
			return entry.Rate, nil
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()

		rate, err := src.FundingRate(fetchCtx, symbol)
		if err != nil {
			return nil, fmt.Errorf("funding %s %s: %w: %w", symbol, exchange, domain.ErrUpstreamFailure, err)
		}

		c.store(ctx, key, fundingEntry{Rate: rate, FetchedAt: c.now().UTC()})
		return rate, nil
	})
	if err != nil {
		if entry, ok := c.readFunding(ctx, key); ok {
			log.Printf("funding refresh failed for %s on %s, serving stale value: %v", symbol, exchange, err)
			return entry.Rate, nil
		}
		return nil, err
	}
	return v.(*domain.FundingRate), nil
}

func (c *MarketCache) fresh(fetchedAt time.Time, ttl time.Duration) bool {
	return c.now().Sub(fetchedAt) < ttl
}

func (c *MarketCache) readCandles(ctx context.Context, key string) (candleEntry, bool) {
	var entry candleEntry
	if !c.read(ctx, key, &entry) {
		return candleEntry{}, false
	}
	return entry, true
}

func (c *MarketCache) readFunding(ctx context.Context, key string) (fundingEntry, bool) {
	var entry fundingEntry
	if !c.read(ctx, key, &entry) {
		return fundingEntry{}, false
	}
	return entry, true
}

func (c *MarketCache) read(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache read error for %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("cache decode error for %s: %v", key, err)
		return false
	}
	return true
}

func (c *MarketCache) store(ctx context.Context, key string, entry any) {
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache encode error for %s: %v", key, err)
		return
	}
	// Last-writer-wins per key; no redis expiry, staleness is decided by
	// the entry's fetch timestamp.
	if err := c.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		log.Printf("cache write error for %s: %v", key, err)
	}
}

func candleKey(exchange, symbol, timeframe string, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%s:%d", exchange, symbol, timeframe, limit)
}

func fundingKey(exchange, symbol string) string {
	return fmt.Sprintf("funding:%s:%s", exchange, symbol)
}
