package model

import "time"

// VerificationTask is a candidate price move awaiting RSI confirmation.
// It is created by the candidate filter and consumed exactly once by a
// verification worker.
type VerificationTask struct {
	Symbol        string
	ChangePercent float64
	EnqueuedAt    time.Time
}

// AlertEvent is a fully confirmed signal handed to the notifier.
type AlertEvent struct {
	Symbol        string
	ChangePercent float64
	Price         float64
	RSILong       float64      // longer timeframe, e.g. 1h
	RSIShort      float64      // shorter timeframe, e.g. 15m
	Stats         *TickerStats // optional 24h context, may be nil
	DetectedAt    time.Time
}
