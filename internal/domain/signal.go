package domain

import "time"

// SpikeSignal is an immutable record of a detected YES-price spike that may
// present a NO entry. It is produced once per qualifying detection and
// consumed within the same polling cycle; the core never persists it.
type SpikeSignal struct {
	Market         Market
	TokenIDNo      string
	YesPriceBefore float64 // baseline at detection time
	YesPriceAfter  float64 // current YES price
	SpikePct       float64 // fractional deviation, e.g. 0.25 for +25%
	NoPrice        float64
	Confidence     float64 // tiered score in [0,1]
	DetectedAt     time.Time
}

// SignalOutcome records what the pipeline did with a detected signal.
type SignalOutcome string

const (
	SignalOutcomeTraded              SignalOutcome = "traded"
	SignalOutcomeSkippedConfidence   SignalOutcome = "skipped_low_confidence"
	SignalOutcomeSkippedPriceBounds  SignalOutcome = "skipped_price_bounds"
	SignalOutcomeSkippedMaxPositions SignalOutcome = "skipped_max_positions"
	SignalOutcomeSkippedThinBook     SignalOutcome = "skipped_thin_book"
	SignalOutcomeMissed              SignalOutcome = "missed"
)

// SignalRecord is the persisted form of a signal together with the book
// state observed at detection time. The signal store keeps these for
// post-hoc analysis of detector quality.
type SignalRecord struct {
	ID             int64
	Timestamp      time.Time
	MarketID       string
	Question       string
	YesPriceBefore float64
	YesPriceAfter  float64
	SpikePct       float64
	NoPrice        float64
	Confidence     float64
	SpreadBps      float64
	BidDepth       float64
	AskDepth       float64
	BookImbalance  float64
	Outcome        SignalOutcome
	TradeID        string // empty unless Outcome is traded
}
