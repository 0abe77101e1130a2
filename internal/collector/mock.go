package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PumpSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Candle series are keyed by "symbol/interval"; FetchCalls counts fetches
// per key so tests can assert on cache behavior.
type MockFetcher struct {
	mu         sync.Mutex
	Candles    map[string][]model.OHLCV
	Symbols    []string
	Ticker     *model.TickerStats
	Err        error
	FetchCalls map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Candles:    make(map[string][]model.OHLCV),
		FetchCalls: make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// SetCandles registers the series returned for a symbol and interval.
func (m *MockFetcher) SetCandles(symbol, interval string, bars []model.OHLCV) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Candles[symbol+"/"+interval] = bars
}

// Calls returns how many times a symbol/interval pair was fetched.
func (m *MockFetcher) Calls(symbol, interval string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCalls[symbol+"/"+interval]
}

func (m *MockFetcher) FetchCandles(_ context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := symbol + "/" + interval
	m.FetchCalls[key]++
	if m.Err != nil {
		return nil, m.Err
	}
	bars, ok := m.Candles[key]
	if !ok {
		return nil, fmt.Errorf("no mock candles for %s", key)
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func (m *MockFetcher) FetchSymbols(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Symbols, nil
}

func (m *MockFetcher) FetchTicker(_ context.Context, _ string) (*model.TickerStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Ticker, nil
}

// GenerateBars builds a synthetic series of count bars whose closes walk
// from basePrice by step per bar.
func GenerateBars(basePrice float64, count int, step float64) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	p := basePrice
	for i := 0; i < count; i++ {
		bars[i] = model.OHLCV{
			Time:   time.Now().Add(-time.Duration(count-i) * time.Minute),
			Open:   p - step,
			High:   p + step,
			Low:    p - step,
			Close:  p,
			Volume: 1000,
		}
		p += step
	}
	return bars
}
