package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"PumpSentinel/internal/model"
)

// intervalMapping converts standard intervals into the MEXC contract format.
var intervalMapping = map[string]string{
	"1m":  "Min1",
	"5m":  "Min5",
	"15m": "Min15",
	"30m": "Min30",
	"1h":  "Min60",
	"4h":  "Hour4",
	"1d":  "Day1",
	"1w":  "Week1",
}

// MexcFetcher implements Fetcher using the MEXC contract REST API.
type MexcFetcher struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries int
}

// NewMexcFetcher creates a fetcher for the given API base URL.
func NewMexcFetcher(baseURL string, timeout time.Duration) *MexcFetcher {
	return &MexcFetcher{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: timeout},
		MaxRetries: 3,
	}
}

func (f *MexcFetcher) Name() string { return "mexc" }

// klineResponse is the columnar kline payload from the contract API.
type klineResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Time  []int64   `json:"time"`
		Open  []float64 `json:"open"`
		High  []float64 `json:"high"`
		Low   []float64 `json:"low"`
		Close []float64 `json:"close"`
		Vol   []float64 `json:"vol"`
	} `json:"data"`
}

// FetchCandles returns up to limit most recent bars for a symbol, oldest first.
func (f *MexcFetcher) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	mexcInterval, ok := intervalMapping[interval]
	if !ok {
		mexcInterval = interval
	}
	endpoint := fmt.Sprintf("%s/api/v1/contract/kline/%s?interval=%s", f.BaseURL, symbol, mexcInterval)

	body, err := f.getWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}

	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode klines %s: %w", symbol, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("kline request %s rejected: %s", symbol, resp.Message)
	}

	d := resp.Data
	n := len(d.Time)
	if len(d.Open) != n || len(d.High) != n || len(d.Low) != n || len(d.Close) != n {
		return nil, fmt.Errorf("kline arrays for %s have mismatched lengths", symbol)
	}

	bars := make([]model.OHLCV, n)
	for i := 0; i < n; i++ {
		bars[i] = model.OHLCV{
			Time:  time.Unix(d.Time[i], 0),
			Open:  d.Open[i],
			High:  d.High[i],
			Low:   d.Low[i],
			Close: d.Close[i],
		}
		if i < len(d.Vol) {
			bars[i].Volume = d.Vol[i]
		}
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// FetchSymbols returns every USDT perpetual contract symbol.
func (f *MexcFetcher) FetchSymbols(ctx context.Context) ([]string, error) {
	endpoint := f.BaseURL + "/api/v1/contract/detail"
	body, err := f.getWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch contract list: %w", err)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode contract list: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("contract list request rejected")
	}

	var symbols []string
	for _, c := range resp.Data {
		if sym, ok := NormalizeSymbol(c.Symbol); ok {
			symbols = append(symbols, sym)
		}
	}
	return symbols, nil
}

// FetchTicker returns 24-hour statistics for a symbol.
func (f *MexcFetcher) FetchTicker(ctx context.Context, symbol string) (*model.TickerStats, error) {
	endpoint := fmt.Sprintf("%s/api/v1/contract/ticker?symbol=%s", f.BaseURL, symbol)
	body, err := f.getWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Symbol       string  `json:"symbol"`
			LastPrice    float64 `json:"lastPrice"`
			RiseFallRate float64 `json:"riseFallRate"`
			Amount24     float64 `json:"amount24"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode ticker %s: %w", symbol, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("ticker request %s rejected", symbol)
	}

	last := resp.Data.LastPrice
	rate := resp.Data.RiseFallRate
	open := 0.0
	if rate > -1 {
		open = last / (1 + rate)
	}
	return &model.TickerStats{
		Symbol:           resp.Data.Symbol,
		LastPrice:        last,
		OpenPrice:        open,
		QuoteVolume24h:   resp.Data.Amount24,
		ChangePercent24h: rate * 100,
	}, nil
}

// getWithRetry performs a GET with a bounded retry loop. Transient network
// errors back off 1s, 2s, 4s; upstream rate-limit responses back off harder
// at 4s, 8s, 16s.
func (f *MexcFetcher) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			if isRateLimited(lastErr) {
				delay *= 4
			}
			log.Printf("[WARN] retrying %s in %v (attempt %d/%d): %v", endpoint, delay, attempt, f.MaxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := f.get(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

type rateLimitError struct{ endpoint string }

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited by upstream: %s", e.endpoint)
}

func isRateLimited(err error) bool {
	_, ok := err.(*rateLimitError)
	return ok
}

func (f *MexcFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &rateLimitError{endpoint: endpoint}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}
