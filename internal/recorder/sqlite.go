package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"PumpSentinel/internal/model"
)

// SQLiteRecorder persists alert history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc readers do not block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			change_percent REAL,
			price          REAL,
			rsi_long       REAL,
			rsi_short      REAL,
			volume_24h     REAL,
			change_24h     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordAlert stores one confirmed alert.
func (r *SQLiteRecorder) RecordAlert(event *model.AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var volume24h, change24h float64
	if event.Stats != nil {
		volume24h = event.Stats.QuoteVolume24h
		change24h = event.Stats.ChangePercent24h
	}

	_, err := r.db.Exec(`INSERT INTO alerts
		(timestamp, symbol, change_percent, price, rsi_long, rsi_short, volume_24h, change_24h)
		VALUES (?,?,?,?,?,?,?,?)`,
		event.DetectedAt.Unix(), event.Symbol, event.ChangePercent, event.Price,
		event.RSILong, event.RSIShort, volume24h, change24h,
	)
	return err
}

// RecentAlerts returns the most recent alerts, newest first.
func (r *SQLiteRecorder) RecentAlerts(limit int) ([]AlertRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, symbol, change_percent, price, rsi_long, rsi_short
		FROM alerts ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var result []AlertRow
	for rows.Next() {
		var a AlertRow
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.Symbol, &a.ChangePercent, &a.Price, &a.RSILong, &a.RSIShort); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
