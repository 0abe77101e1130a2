package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"PumpSentinel/internal/model"
)

func TestRecordAndReadBack(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "alerts.db")
	r, err := NewSQLiteRecorder(dbPath)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer r.Close()

	base := time.Now()
	events := []*model.AlertEvent{
		{Symbol: "BTC_USDT", ChangePercent: 9.3, Price: 67890, RSILong: 82.4, RSIShort: 74.1, DetectedAt: base.Add(-time.Minute)},
		{Symbol: "DOGE_USDT", ChangePercent: -11.0, Price: 0.21, RSILong: 22.8, RSIShort: 17.3,
			Stats:      &model.TickerStats{QuoteVolume24h: 5_000_000, ChangePercent24h: -15.2},
			DetectedAt: base},
	}
	for _, e := range events {
		if err := r.RecordAlert(e); err != nil {
			t.Fatalf("record %s: %v", e.Symbol, err)
		}
	}

	rows, err := r.RecentAlerts(10)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Newest first.
	if rows[0].Symbol != "DOGE_USDT" || rows[1].Symbol != "BTC_USDT" {
		t.Errorf("unexpected order: %s, %s", rows[0].Symbol, rows[1].Symbol)
	}
	if rows[0].ChangePercent != -11.0 {
		t.Errorf("change = %v, want -11.0", rows[0].ChangePercent)
	}
	if rows[1].RSILong != 82.4 {
		t.Errorf("rsi_long = %v, want 82.4", rows[1].RSILong)
	}
}

func TestRecentAlertsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "alerts.db")
	r, err := NewSQLiteRecorder(dbPath)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer r.Close()

	for i := 0; i < 5; i++ {
		err := r.RecordAlert(&model.AlertEvent{
			Symbol:        "SOL_USDT",
			ChangePercent: float64(8 + i),
			DetectedAt:    time.Now(),
		})
		if err != nil {
			t.Fatalf("record #%d: %v", i, err)
		}
	}

	rows, err := r.RecentAlerts(3)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows, want 3", len(rows))
	}
}
