// Package orderbook analyzes orderbook snapshots and derives execution
// parameters: microstructure metrics, urgency, order pricing, queue
// estimates, and the staleness policy for resting orders.
package orderbook

import (
	"fmt"
	"math"
	"sort"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

const (
	defaultTickSize      = 0.01
	defaultThinSpreadBps = 500.0
	defaultThinBidDepth  = 500.0

	// imbalanceLevels is how many top-of-book levels feed the imbalance
	// metric on each side.
	imbalanceLevels = 5

	// depthBand is the fractional band around the best price that counts
	// toward the 1% depth metric.
	depthBand = 0.01
)

// Analysis is the computed microstructure state of one book snapshot.
// Analyze is pure: the same snapshot always yields the same Analysis.
type Analysis struct {
	BestBid      float64
	BestAsk      float64
	Spread       float64
	SpreadBps    float64
	BidDepth1Pct float64
	AskDepth1Pct float64
	Bids         []domain.PriceLevel // sorted descending by price
	Asks         []domain.PriceLevel // sorted ascending by price
	Imbalance    float64             // top-5 size imbalance in [-1,1]
	Thin         bool
}

// MidPrice returns the midpoint of best bid and best ask.
func (a Analysis) MidPrice() float64 {
	return (a.BestBid + a.BestAsk) / 2
}

// Analyzer computes book metrics and execution parameters. The zero value
// is not usable; construct with NewAnalyzer.
type Analyzer struct {
	tickSize      float64
	thinSpreadBps float64
	thinBidDepth  float64
}

// NewAnalyzer creates an Analyzer with the given thin-book thresholds.
// Non-positive arguments fall back to the defaults (tick 0.01, spread
// 500 bps, depth $500).
func NewAnalyzer(tickSize, thinSpreadBps, thinBidDepth float64) *Analyzer {
	a := &Analyzer{
		tickSize:      tickSize,
		thinSpreadBps: thinSpreadBps,
		thinBidDepth:  thinBidDepth,
	}
	if a.tickSize <= 0 {
		a.tickSize = defaultTickSize
	}
	if a.thinSpreadBps <= 0 {
		a.thinSpreadBps = defaultThinSpreadBps
	}
	if a.thinBidDepth <= 0 {
		a.thinBidDepth = defaultThinBidDepth
	}
	return a
}

// Analyze validates and sorts the snapshot's levels and computes the full
// metric set. Levels with non-positive size or a price outside [0,1] are
// dropped rather than propagated. An empty bid side yields best bid 0; an
// empty ask side yields best ask 1.
func (a *Analyzer) Analyze(snap domain.OrderbookSnapshot) Analysis {
	bids := sanitizeLevels(snap.Bids)
	asks := sanitizeLevels(snap.Asks)

	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.SliceStable(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	bestBid := 0.0
	if len(bids) > 0 {
		bestBid = bids[0].Price
	}
	bestAsk := 1.0
	if len(asks) > 0 {
		bestAsk = asks[0].Price
	}

	spread := bestAsk - bestBid
	spreadBps := 0.0
	if bestBid > 0 {
		spreadBps = spread / bestBid * 10000
	}

	bidDepth := bandDepth(bids, bestBid, -1)
	askDepth := bandDepth(asks, bestAsk, +1)

	var totalBid, totalAsk float64
	for _, l := range topLevels(bids, imbalanceLevels) {
		totalBid += l.Size
	}
	for _, l := range topLevels(asks, imbalanceLevels) {
		totalAsk += l.Size
	}
	imbalance := 0.0
	if totalBid+totalAsk > 0 {
		imbalance = (totalBid - totalAsk) / (totalBid + totalAsk)
	}

	return Analysis{
		BestBid:      bestBid,
		BestAsk:      bestAsk,
		Spread:       spread,
		SpreadBps:    spreadBps,
		BidDepth1Pct: bidDepth,
		AskDepth1Pct: askDepth,
		Bids:         bids,
		Asks:         asks,
		Imbalance:    imbalance,
		Thin:         spreadBps > a.thinSpreadBps || bidDepth < a.thinBidDepth,
	}
}

// OptimalOrder derives execution parameters for a buy of targetSize given
// the current book, the spike magnitude that motivated it, and how long
// ago the spike was detected.
//
// Urgency is decided by an ordered first-match-wins table:
//
//  1. spike ≥ 0.40                 → aggressive (reversion likely imminent)
//  2. spike ≥ 0.30 or thin book    → moderate
//  3. imbalance < -0.2             → passive (sell pressure comes to us)
//  4. spike fresher than 30s       → moderate
//  5. otherwise                    → passive
func (a *Analyzer) OptimalOrder(an Analysis, targetSize, spikeMagnitude, timeSinceSpikeSeconds float64) domain.SmartOrderParams {
	urgency := determineUrgency(an, spikeMagnitude, timeSinceSpikeSeconds)
	price, reason := a.priceFor(an, urgency)

	queuePos := QueuePosition(price, an.Bids)

	estFill := 5.0
	if queuePos > 0 {
		// Heuristic: assume ~$100/min of volume absorbs the queue ahead.
		estFill = float64(queuePos) / 100 * 60
	}

	return domain.SmartOrderParams{
		Price:              price,
		Size:               targetSize,
		Urgency:            urgency,
		Reason:             reason,
		QueuePosition:      queuePos,
		EstFillTimeSeconds: estFill,
	}
}

func determineUrgency(an Analysis, spikeMagnitude, timeSinceSpikeSeconds float64) domain.Urgency {
	switch {
	case spikeMagnitude >= 0.40:
		return domain.UrgencyAggressive
	case spikeMagnitude >= 0.30 || an.Thin:
		return domain.UrgencyModerate
	case an.Imbalance < -0.2:
		return domain.UrgencyPassive
	case timeSinceSpikeSeconds < 30:
		return domain.UrgencyModerate
	default:
		return domain.UrgencyPassive
	}
}

// priceFor maps urgency to a tick-aligned price.
func (a *Analyzer) priceFor(an Analysis, urgency domain.Urgency) (float64, string) {
	switch urgency {
	case domain.UrgencyAggressive:
		// Cross the spread, but never pay more than a tick past mid.
		price := math.Min(an.BestAsk, an.MidPrice()+a.tickSize)
		return a.roundTick(price), "crossing spread for immediate fill"
	case domain.UrgencyModerate:
		// Improve the bid by one tick without exceeding mid.
		price := math.Min(an.BestBid+a.tickSize, an.MidPrice())
		return a.roundTick(price), "improving bid by 1 tick"
	default:
		return a.roundTick(an.BestBid), "joining best bid"
	}
}

// QueuePosition estimates resting-order rank at the given price: the
// cumulative size of every bid level strictly better than price, plus the
// size already resting at price itself (we queue behind it). Levels worse
// than our price never count. bids must be sorted descending.
func QueuePosition(price float64, bids []domain.PriceLevel) int {
	position := 0
	for _, l := range bids {
		switch {
		case l.Price > price:
			position += int(l.Size)
		case l.Price == price:
			position += int(l.Size)
			return position
		default:
			return position
		}
	}
	return position
}

// ShouldCancel decides whether a resting order has gone stale. Rules are
// evaluated in order; the first hit wins:
//
//  1. Best bid moved more than 0.05 above our price: YES kept running,
//     the order is stranded.
//  2. The order is older than 300s and more than 0.02 behind the best
//     bid: stale and too far back in the book.
//  3. The implied NO price (1 - YES mid) exceeds 0.60: the spike already
//     reverted without us. The 1-mid figure is a deliberate approximation
//     carried over from the original design; only the YES book is in
//     hand here, so the true NO mid is not available.
func (a *Analyzer) ShouldCancel(orderPrice, orderAgeSeconds float64, an Analysis, originalSpikePct float64) (bool, string) {
	if an.BestBid > orderPrice+0.05 {
		return true, "price moved up significantly, order stale"
	}

	if orderAgeSeconds > 300 && orderPrice < an.BestBid-0.02 {
		return true, "order stale and far from best bid"
	}

	if impliedNo := 1.0 - an.MidPrice(); impliedNo > 0.60 {
		return true, "spike already reverted, opportunity passed"
	}

	return false, ""
}

// roundTick aligns a price to the tick grid and clamps it to [0,1].
func (a *Analyzer) roundTick(price float64) float64 {
	p := math.Round(price/a.tickSize) * a.tickSize
	// Kill the float residue so 0.3000000000000004 prints as 0.30.
	p = math.Round(p*1e9) / 1e9
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// sanitizeLevels copies the input, dropping levels that cannot occur in a
// healthy probability-priced book.
func sanitizeLevels(levels []domain.PriceLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, l := range levels {
		if l.Size <= 0 || l.Price < 0 || l.Price > 1 {
			continue
		}
		out = append(out, l)
	}
	return out
}

// bandDepth sums sizes within the 1% band on the correct side of the
// reference price: bids at or above ref*(1-band), asks at or below
// ref*(1+band). direction is -1 for bids, +1 for asks.
func bandDepth(levels []domain.PriceLevel, reference float64, direction int) float64 {
	if len(levels) == 0 || reference <= 0 {
		return 0
	}
	threshold := reference * (1 + float64(direction)*depthBand)

	var total float64
	for _, l := range levels {
		if direction < 0 && l.Price >= threshold {
			total += l.Size
		} else if direction > 0 && l.Price <= threshold {
			total += l.Size
		}
	}
	return total
}

func topLevels(levels []domain.PriceLevel, n int) []domain.PriceLevel {
	if len(levels) < n {
		return levels
	}
	return levels[:n]
}

// DescribeBook renders a one-line book summary for logs.
func DescribeBook(an Analysis) string {
	return fmt.Sprintf("bid=%.2f ask=%.2f spread=%.0fbps depth=%.0f/%.0f imb=%+.2f thin=%t",
		an.BestBid, an.BestAsk, an.SpreadBps, an.BidDepth1Pct, an.AskDepth1Pct, an.Imbalance, an.Thin)
}
