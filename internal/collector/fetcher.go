package collector

import (
	"context"

	"PumpSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data from the exchange.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error)
	FetchSymbols(ctx context.Context) ([]string, error)
	FetchTicker(ctx context.Context, symbol string) (*model.TickerStats, error)
	Name() string
}
