package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close prices from a series of bars.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// TickerStats holds 24-hour trading statistics for a symbol.
type TickerStats struct {
	Symbol           string
	LastPrice        float64
	OpenPrice        float64
	QuoteVolume24h   float64
	ChangePercent24h float64
}
