package analyzer

import (
	"sync"
	"time"
)

// CooldownTracker suppresses repeated alerts for the same symbol within a
// configured window. Safe for concurrent use by multiple workers.
type CooldownTracker struct {
	mu        sync.Mutex
	window    time.Duration
	lastAlert map[string]time.Time
	now       func() time.Time
}

// NewCooldownTracker creates a tracker with the given cooldown window.
func NewCooldownTracker(window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		window:    window,
		lastAlert: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Eligible reports whether a symbol may alert: it either never alerted, or
// its last alert is older than the cooldown window.
func (c *CooldownTracker) Eligible(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.lastAlert[symbol]
	if !ok {
		return true
	}
	return c.now().Sub(last) >= c.window
}

// MarkAlerted records an alert for the symbol at the current time. The
// recorded timestamp only moves forward.
func (c *CooldownTracker) MarkAlerted(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.lastAlert[symbol]; ok && last.After(now) {
		return
	}
	c.lastAlert[symbol] = now
}

// AlertedCount returns how many symbols have ever alerted.
func (c *CooldownTracker) AlertedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lastAlert)
}
