package buffer

import (
	"sync"
	"time"

	"PumpSentinel/internal/model"
)

// Store keeps a rolling window of recent ticks per symbol. It is the shared
// mutable state between the streaming layer (concurrent appends) and the
// candidate filter / failsafe rescan (concurrent reads), guarded by one
// coarse mutex.
type Store struct {
	mu     sync.RWMutex
	maxAge time.Duration
	ticks  map[string][]model.Tick
}

// NewStore creates a Store that retains ticks no older than maxAge.
func NewStore(maxAge time.Duration) *Store {
	return &Store{
		maxAge: maxAge,
		ticks:  make(map[string][]model.Tick),
	}
}

// Append records a tick and trims entries older than the retention window.
// Invalid ticks are dropped silently.
func (s *Store) Append(t model.Tick) {
	if !t.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.ticks[t.Symbol], t)

	cutoff := t.ObservedAt.Add(-s.maxAge)
	trim := 0
	for trim < len(buf) && buf[trim].ObservedAt.Before(cutoff) {
		trim++
	}
	if trim > 0 {
		buf = append(buf[:0], buf[trim:]...)
	}
	s.ticks[t.Symbol] = buf
}

// Snapshot returns a copy of the buffered ticks for a symbol, oldest first.
func (s *Store) Snapshot(symbol string) []model.Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.ticks[symbol]
	if len(buf) == 0 {
		return nil
	}
	out := make([]model.Tick, len(buf))
	copy(out, buf)
	return out
}

// LatestPrice returns the most recent buffered price for a symbol, or 0 if
// no ticks have been observed.
func (s *Store) LatestPrice(symbol string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.ticks[symbol]
	if len(buf) == 0 {
		return 0
	}
	return buf[len(buf)-1].Price
}

// Symbols returns every symbol that currently has buffered ticks.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.ticks))
	for sym := range s.ticks {
		out = append(out, sym)
	}
	return out
}

// Len returns the number of symbols with buffered ticks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ticks)
}
