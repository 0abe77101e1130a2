package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMexcFetcher_FetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contract/kline/BTC_USDT" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "Min60" {
			t.Errorf("expected interval Min60, got %s", got)
		}
		w.Write([]byte(`{
			"success": true,
			"data": {
				"time": [1717200000, 1717203600, 1717207200],
				"open": [100, 101, 102],
				"high": [101, 102, 103],
				"low": [99, 100, 101],
				"close": [101, 102, 103],
				"vol": [10, 20, 30]
			}
		}`))
	}))
	defer srv.Close()

	f := NewMexcFetcher(srv.URL, 5*time.Second)
	bars, err := f.FetchCandles(context.Background(), "BTC_USDT", "1h", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected limit of 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 102 || bars[1].Close != 103 {
		t.Errorf("expected most recent bars, got closes %.0f %.0f", bars[0].Close, bars[1].Close)
	}
	if !bars[0].Time.Before(bars[1].Time) {
		t.Error("bars must be oldest first")
	}
}

func TestMexcFetcher_MismatchedColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"time": [1, 2], "open": [100], "high": [101, 102], "low": [99, 100], "close": [101, 102], "vol": [1, 2]}}`))
	}))
	defer srv.Close()

	f := NewMexcFetcher(srv.URL, 5*time.Second)
	if _, err := f.FetchCandles(context.Background(), "BTC_USDT", "1h", 10); err == nil {
		t.Fatal("expected error for mismatched column lengths")
	}
}

func TestMexcFetcher_RejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "contract not found"}`))
	}))
	defer srv.Close()

	f := NewMexcFetcher(srv.URL, 5*time.Second)
	if _, err := f.FetchCandles(context.Background(), "NOPE_USDT", "1h", 10); err == nil {
		t.Fatal("expected error for rejected request")
	}
}

func TestMexcFetcher_FetchSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": [
			{"symbol": "BTC_USDT"},
			{"symbol": "ETH_USDT"},
			{"symbol": "BTC_USD"}
		]}`))
	}))
	defer srv.Close()

	f := NewMexcFetcher(srv.URL, 5*time.Second)
	symbols, err := f.FetchSymbols(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 {
		t.Errorf("expected 2 USDT symbols, got %v", symbols)
	}
}
