package analyzer

import (
	"math"
	"time"

	"PumpSentinel/internal/buffer"
)

// Filter decides whether a symbol's recent price move crossed the configured
// threshold. It is cheap enough to run on every tick and, as a failsafe,
// periodically across all known symbols.
type Filter struct {
	store     *buffer.Store
	threshold float64 // percent
	window    time.Duration
	now       func() time.Time
}

// NewFilter creates a candidate filter over the given price buffer store.
func NewFilter(store *buffer.Store, thresholdPercent float64, window time.Duration) *Filter {
	return &Filter{
		store:     store,
		threshold: thresholdPercent,
		window:    window,
		now:       time.Now,
	}
}

// Evaluate reports whether the symbol moved at least the threshold percent
// within the lookback window, and by how much. The reference price is the
// last tick observed before the window start; with fewer than 2 ticks, or no
// tick predating the window start, there is not enough history and the
// result is false.
func (f *Filter) Evaluate(symbol string) (bool, float64) {
	snap := f.store.Snapshot(symbol)
	if len(snap) < 2 {
		return false, 0
	}

	cutoff := f.now().Add(-f.window)
	refPrice := 0.0
	for i, tk := range snap {
		if !tk.ObservedAt.Before(cutoff) {
			if i > 0 {
				refPrice = snap[i-1].Price
			}
			break
		}
	}
	if refPrice <= 0 {
		return false, 0
	}

	latest := snap[len(snap)-1].Price
	change := math.Abs((latest - refPrice) / refPrice * 100)
	return change >= f.threshold, change
}
