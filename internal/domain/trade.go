package domain

import "time"

// TradeOutcome is the final result of an executed trade.
type TradeOutcome string

const (
	TradeOutcomeWin       TradeOutcome = "win"
	TradeOutcomeLoss      TradeOutcome = "loss"
	TradeOutcomeBreakeven TradeOutcome = "breakeven" // within 1%
	TradeOutcomePending   TradeOutcome = "pending"
	TradeOutcomeCancelled TradeOutcome = "cancelled" // order never filled
)

// TradeRecord is the persisted record of an executed trade, from entry
// through exit. Exit fields stay nil while the trade is open.
type TradeRecord struct {
	TradeID        string
	Timestamp      time.Time
	MarketID       string
	Question       string
	SignalSpikePct float64
	EntryPrice     float64
	EntrySize      float64
	Urgency        string
	QueuePosition  int

	FillPrice       *float64
	FillTimeSeconds *float64

	ExitTimestamp *time.Time
	ExitPrice     *float64
	ExitReason    *string // take_profit, stop_loss, manual, expired

	PnLDollars *float64
	PnLPct     *float64
	Outcome    TradeOutcome
}
