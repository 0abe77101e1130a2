package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"BTC_USDT", "BTC_USDT", true},
		{"btc_usdt", "BTC_USDT", true},
		{"  eth_usdt\n", "ETH_USDT", true},
		{"https://futures.mexc.com/futures/SOL_USDT", "SOL_USDT", true},
		{"https://www.mexc.com/futures/perpetual/PEPE_USDT", "PEPE_USDT", true},
		{"BTCUSD", "", false},
		{"BTC_USDC", "", false},
		{"", "", false},
		{"BTC-USDT", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeSymbol(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("NormalizeSymbol(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadSymbols_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.txt")
	content := "BTC_USDT\n# comment\neth_usdt\n\nnot-a-symbol\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher := NewMockFetcher()
	symbols, err := LoadSymbols(context.Background(), fetcher, path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 || symbols[0] != "BTC_USDT" || symbols[1] != "ETH_USDT" {
		t.Errorf("unexpected symbols: %v", symbols)
	}
}

func TestLoadSymbols_FetchAndWriteWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "symbols.txt")
	fetcher := NewMockFetcher()
	fetcher.Symbols = []string{"BTC_USDT", "ETH_USDT"}

	symbols, err := LoadSymbols(context.Background(), fetcher, path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %v", symbols)
	}

	// The fetched list must be cached for the next start.
	again, err := readSymbolsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 2 {
		t.Errorf("expected symbols file written with 2 entries, got %v", again)
	}
}

func TestFilterSymbols(t *testing.T) {
	symbols := []string{"BTC_USDT", "ETH_USDT", "DOGE_USDT"}

	got := filterSymbols(symbols, nil, []string{"DOGE_USDT"})
	if len(got) != 2 {
		t.Errorf("blacklist: expected 2 symbols, got %v", got)
	}

	got = filterSymbols(symbols, []string{"btc_usdt"}, nil)
	if len(got) != 1 || got[0] != "BTC_USDT" {
		t.Errorf("whitelist: expected [BTC_USDT], got %v", got)
	}

	got = filterSymbols(symbols, []string{"BTC_USDT", "ETH_USDT"}, []string{"ETH_USDT"})
	if len(got) != 1 || got[0] != "BTC_USDT" {
		t.Errorf("combined: expected [BTC_USDT], got %v", got)
	}
}
