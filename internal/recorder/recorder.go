package recorder

import "PumpSentinel/internal/model"

// Recorder persists alert history for later analysis.
type Recorder interface {
	RecordAlert(event *model.AlertEvent) error
	RecentAlerts(limit int) ([]AlertRow, error)
	Close() error
}

// AlertRow is one persisted alert.
type AlertRow struct {
	ID            int64
	Timestamp     int64
	Symbol        string
	ChangePercent float64
	Price         float64
	RSILong       float64
	RSIShort      float64
}
