package domain

import "time"

// Position tracks an open NO position for a single token.
type Position struct {
	TokenID      string
	Question     string
	EntryPrice   float64
	Size         float64
	EntryTime    time.Time
	OrderID      string
	TradeID      string
	CurrentPrice float64
	PnLPct       float64
}

// Age returns how long the position has been open.
func (p Position) Age(now time.Time) time.Duration {
	return now.Sub(p.EntryTime)
}
