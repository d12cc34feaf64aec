// Package strategy turns spike signals into priced, sized trade decisions.
// The premise: most binary markets resolve NO, so a sudden YES spike is
// usually speculative and worth fading by buying NO.
package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
	"github.com/Jasuni69/mean-reversion/internal/orderbook"
)

const (
	// minViableSize is the smallest order worth submitting, in dollars.
	minViableSize = 10.0

	// thinBookSizeFraction caps order size at this share of the 1% bid
	// depth when the book is thin.
	thinBookSizeFraction = 0.3

	// fallbackPriceOffset and fallbackPriceCap shape the degraded path
	// used when no orderbook snapshot is available.
	fallbackPriceOffset = 0.02
	fallbackPriceCap    = 0.95
)

// Config holds composer thresholds.
type Config struct {
	MinConfidence   float64 // decision floor, default 0.5
	MinNoPrice      float64 // below this NO is too cheap, default 0.10
	MaxNoPrice      float64 // above this YES has not spiked enough, default 0.70
	MaxPositionSize float64 // dollar size ceiling
}

// Composer evaluates spike signals against confidence and price bounds and
// computes order size and price, delegating execution parameters to the
// orderbook analyzer when a snapshot is available.
type Composer struct {
	cfg      Config
	analyzer *orderbook.Analyzer
	logger   *slog.Logger

	now func() time.Time
}

// NewComposer creates a Composer. Zero thresholds take their defaults
// (confidence 0.5, NO bounds 0.10..0.70).
func NewComposer(cfg Config, analyzer *orderbook.Analyzer, logger *slog.Logger) *Composer {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.5
	}
	if cfg.MinNoPrice <= 0 {
		cfg.MinNoPrice = 0.10
	}
	if cfg.MaxNoPrice <= 0 {
		cfg.MaxNoPrice = 0.70
	}
	return &Composer{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   logger.With(slog.String("component", "composer")),
		now:      time.Now,
	}
}

// Evaluate turns a signal into a trade decision.
//
// A nil return means the signal fell below the confidence floor and is not
// worth a structured rejection. A decision with Size 0 is a reasoned
// rejection (NO price out of bounds) that callers should record. When an
// analysis of the NO book is supplied, execution parameters come from the
// analyzer and thin books clamp the size; without one the decision falls
// back to a simple limit just above the NO price.
func (c *Composer) Evaluate(signal domain.SpikeSignal, an *orderbook.Analysis) *domain.TradeDecision {
	if signal.Confidence < c.cfg.MinConfidence {
		return nil
	}

	if signal.NoPrice < c.cfg.MinNoPrice {
		return &domain.TradeDecision{
			Signal:  signal,
			TokenID: signal.TokenIDNo,
			Side:    domain.OrderSideBuy,
			Reason:  fmt.Sprintf("NO price too low (%.2f), likely already priced in", signal.NoPrice),
		}
	}
	if signal.NoPrice > c.cfg.MaxNoPrice {
		return &domain.TradeDecision{
			Signal:  signal,
			TokenID: signal.TokenIDNo,
			Side:    domain.OrderSideBuy,
			Reason:  fmt.Sprintf("NO price too high (%.2f), YES hasn't spiked enough", signal.NoPrice),
		}
	}

	size := c.baseSize(signal)

	if an == nil {
		// Degraded path: no book in hand, still produce a valid decision.
		limit := math.Min(signal.NoPrice+fallbackPriceOffset, fallbackPriceCap)
		return &domain.TradeDecision{
			Signal:     signal,
			TokenID:    signal.TokenIDNo,
			Side:       domain.OrderSideBuy,
			Size:       size,
			LimitPrice: limit,
			Reason:     fmt.Sprintf("YES spiked %.1f%%, buying NO at %.2f (no book data)", signal.SpikePct*100, limit),
		}
	}

	sinceSpike := c.now().Sub(signal.DetectedAt).Seconds()
	params := c.analyzer.OptimalOrder(*an, size, signal.SpikePct, sinceSpike)

	if an.Thin {
		clamped := math.Min(size, an.BidDepth1Pct*thinBookSizeFraction)
		size = math.Max(clamped, minViableSize)
		params.Size = size
		c.logger.Debug("thin book, clamping size",
			slog.Float64("bid_depth", an.BidDepth1Pct),
			slog.Float64("size", size),
		)
	}

	return &domain.TradeDecision{
		Signal:     signal,
		TokenID:    signal.TokenIDNo,
		Side:       domain.OrderSideBuy,
		Size:       size,
		LimitPrice: params.Price,
		Reason:     fmt.Sprintf("YES spiked %.1f%%, buying NO at %.2f (%s)", signal.SpikePct*100, params.Price, params.Urgency),
		Params:     &params,
	}
}

// baseSize scales the position ceiling by confidence and spike magnitude,
// floored at the minimum viable size.
func (c *Composer) baseSize(signal domain.SpikeSignal) float64 {
	size := c.cfg.MaxPositionSize * signal.Confidence

	switch {
	case signal.SpikePct >= 0.30:
		// full size
	case signal.SpikePct >= 0.25:
		size *= 0.8
	default:
		size *= 0.6
	}

	return math.Max(size, minViableSize)
}
