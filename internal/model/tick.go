package model

import "time"

// Tick is a single timestamped price observation for a symbol.
type Tick struct {
	Symbol     string
	Price      float64
	ObservedAt time.Time
}

// Valid reports whether the tick carries a usable symbol and a positive price.
func (t Tick) Valid() bool {
	return t.Symbol != "" && t.Price > 0
}
