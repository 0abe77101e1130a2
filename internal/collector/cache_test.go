package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"PumpSentinel/internal/ratelimit"
)

func newTestCache(fetcher Fetcher, ttl time.Duration) (*CandleCache, *time.Time) {
	cache := NewCandleCache(fetcher, ratelimit.NewLimiter(0), ttl, 100)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }
	return cache, &clock
}

func TestCandleCache_SingleFetchWithinTTL(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.SetCandles("BTC_USDT", "1h", GenerateBars(100, 50, 0.5))
	cache, _ := newTestCache(fetcher, 20*time.Second)

	for i := 0; i < 3; i++ {
		bars, err := cache.Get(context.Background(), "BTC_USDT", "1h")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if len(bars) != 50 {
			t.Fatalf("get %d: expected 50 bars, got %d", i, len(bars))
		}
	}

	if calls := fetcher.Calls("BTC_USDT", "1h"); calls != 1 {
		t.Errorf("expected exactly 1 underlying fetch, got %d", calls)
	}
}

func TestCandleCache_RefetchAfterTTL(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.SetCandles("BTC_USDT", "1h", GenerateBars(100, 50, 0.5))
	cache, clock := newTestCache(fetcher, 20*time.Second)

	if _, err := cache.Get(context.Background(), "BTC_USDT", "1h"); err != nil {
		t.Fatal(err)
	}
	*clock = clock.Add(25 * time.Second)
	if _, err := cache.Get(context.Background(), "BTC_USDT", "1h"); err != nil {
		t.Fatal(err)
	}

	if calls := fetcher.Calls("BTC_USDT", "1h"); calls != 2 {
		t.Errorf("expected 2 fetches spanning the TTL, got %d", calls)
	}
}

func TestCandleCache_KeyedPerSymbolAndInterval(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.SetCandles("BTC_USDT", "1h", GenerateBars(100, 50, 0.5))
	fetcher.SetCandles("BTC_USDT", "15m", GenerateBars(100, 50, 0.1))
	fetcher.SetCandles("ETH_USDT", "1h", GenerateBars(2000, 50, 1))
	cache, _ := newTestCache(fetcher, 20*time.Second)

	ctx := context.Background()
	cache.Get(ctx, "BTC_USDT", "1h")
	cache.Get(ctx, "BTC_USDT", "15m")
	cache.Get(ctx, "ETH_USDT", "1h")
	cache.Get(ctx, "BTC_USDT", "1h")

	if calls := fetcher.Calls("BTC_USDT", "1h"); calls != 1 {
		t.Errorf("BTC/1h: expected 1 fetch, got %d", calls)
	}
	if calls := fetcher.Calls("BTC_USDT", "15m"); calls != 1 {
		t.Errorf("BTC/15m: expected 1 fetch, got %d", calls)
	}
	if calls := fetcher.Calls("ETH_USDT", "1h"); calls != 1 {
		t.Errorf("ETH/1h: expected 1 fetch, got %d", calls)
	}
}

func TestCandleCache_FailureNotCached(t *testing.T) {
	fetcher := NewMockFetcher()
	fetcher.Err = errors.New("boom")
	cache, _ := newTestCache(fetcher, 20*time.Second)

	if _, err := cache.Get(context.Background(), "BTC_USDT", "1h"); err == nil {
		t.Fatal("expected fetch error to propagate")
	}

	// Recovered fetcher must be consulted again, not a poisoned entry.
	fetcher.Err = nil
	fetcher.SetCandles("BTC_USDT", "1h", GenerateBars(100, 50, 0.5))
	bars, err := cache.Get(context.Background(), "BTC_USDT", "1h")
	if err != nil {
		t.Fatalf("get after recovery: %v", err)
	}
	if len(bars) != 50 {
		t.Errorf("expected 50 bars after recovery, got %d", len(bars))
	}
	if calls := fetcher.Calls("BTC_USDT", "1h"); calls != 2 {
		t.Errorf("expected 2 fetch attempts, got %d", calls)
	}
}
