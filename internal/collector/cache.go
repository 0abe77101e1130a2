package collector

import (
	"context"
	"sync"
	"time"

	"PumpSentinel/internal/model"
	"PumpSentinel/internal/ratelimit"
)

type cacheKey struct {
	symbol   string
	interval string
}

type cacheEntry struct {
	bars      []model.OHLCV
	fetchedAt time.Time
}

// CandleCache memoizes fetched candle series per (symbol, interval) for a
// short TTL, so concurrent verification tasks do not repeat identical REST
// calls. Only actual fetches consume a rate-limiter permit; cache hits are
// free. A failed fetch stores nothing.
type CandleCache struct {
	fetcher Fetcher
	limiter *ratelimit.Limiter
	ttl     time.Duration
	limit   int

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	now     func() time.Time
}

// NewCandleCache wraps a fetcher with TTL memoization and rate limiting.
func NewCandleCache(fetcher Fetcher, limiter *ratelimit.Limiter, ttl time.Duration, limit int) *CandleCache {
	return &CandleCache{
		fetcher: fetcher,
		limiter: limiter,
		ttl:     ttl,
		limit:   limit,
		entries: make(map[cacheKey]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached series for (symbol, interval) when fresh, otherwise
// fetches, stores and returns a new one.
func (c *CandleCache) Get(ctx context.Context, symbol, interval string) ([]model.OHLCV, error) {
	key := cacheKey{symbol: symbol, interval: interval}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return entry.bars, nil
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	bars, err := c.fetcher.FetchCandles(ctx, symbol, interval, c.limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{bars: bars, fetchedAt: c.now()}
	c.mu.Unlock()
	return bars, nil
}
