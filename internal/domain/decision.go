package domain

// Urgency indicates how aggressively an order should cross the spread.
type Urgency int

const (
	UrgencyPassive Urgency = iota
	UrgencyModerate
	UrgencyAggressive
)

// String returns the lowercase tag used in logs and persisted records.
func (u Urgency) String() string {
	switch u {
	case UrgencyModerate:
		return "moderate"
	case UrgencyAggressive:
		return "aggressive"
	default:
		return "passive"
	}
}

// SmartOrderParams holds execution parameters derived from orderbook
// microstructure: the tick-aligned target price, urgency tier, and the
// queue/fill estimates used for staleness decisions later.
type SmartOrderParams struct {
	Price              float64
	Size               float64
	Urgency            Urgency
	Reason             string
	QueuePosition      int
	EstFillTimeSeconds float64
}

// TradeDecision is the composer's verdict on a spike signal. Size 0 carries
// a reasoned rejection rather than an order; callers must check Actionable
// before submitting.
type TradeDecision struct {
	Signal     SpikeSignal
	TokenID    string
	Side       OrderSide // always buy: the strategy only ever buys NO
	Size       float64
	LimitPrice float64
	Reason     string
	Params     *SmartOrderParams // nil on the degraded no-book path
}

// Actionable reports whether the decision carries a submittable order.
func (d TradeDecision) Actionable() bool {
	return d.Size > 0
}
