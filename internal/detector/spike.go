package detector

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

// PriceSource supplies the current price of a single token. The CLOB client
// satisfies this; tests use a fixture map.
type PriceSource interface {
	Price(ctx context.Context, tokenID string) (float64, error)
}

// Config holds detector thresholds. The history window and cooldown live on
// the BaselineTracker, which owns that state.
type Config struct {
	MinSpikeThreshold float64 // detection floor as a fraction, default 0.20
	MinLiquidity      float64 // floor for scannable markets
}

// SpikeDetector scans markets for YES prices that have run ahead of their
// smoothed baseline. Detection is deterministic: given the same tracker
// state and prices, Scan produces the same signals in the same order.
type SpikeDetector struct {
	cfg     Config
	tracker *BaselineTracker
	prices  PriceSource
	logger  *slog.Logger

	now func() time.Time // injectable clock for tests
}

// NewSpikeDetector creates a SpikeDetector using the given tracker and
// price source.
func NewSpikeDetector(cfg Config, tracker *BaselineTracker, prices PriceSource, logger *slog.Logger) *SpikeDetector {
	if cfg.MinSpikeThreshold <= 0 {
		cfg.MinSpikeThreshold = 0.20
	}
	return &SpikeDetector{
		cfg:     cfg,
		tracker: tracker,
		prices:  prices,
		logger:  logger.With(slog.String("component", "spike_detector")),
		now:     time.Now,
	}
}

// UpdateBaselines folds the current YES price of every market into the
// baseline tracker. Tokens are fetched concurrently; a failed fetch skips
// that market and never aborts the pass.
func (d *SpikeDetector) UpdateBaselines(ctx context.Context, markets []domain.Market) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, m := range markets {
		m := m
		g.Go(func() error {
			price, err := d.prices.Price(ctx, m.TokenIDYes)
			if err != nil {
				d.logger.WarnContext(ctx, "baseline update skipped",
					slog.String("token", m.TokenIDYes),
					slog.String("error", err.Error()),
				)
				return nil
			}
			d.tracker.Observe(m.TokenIDYes, price, d.now())
			return nil
		})
	}
	_ = g.Wait()
}

// Scan checks every sufficiently liquid market for a spike and returns the
// qualifying signals ordered by confidence, highest first. Per-market
// failures are isolated: one unreachable book never blocks the rest.
func (d *SpikeDetector) Scan(ctx context.Context, markets []domain.Market) []domain.SpikeSignal {
	var signals []domain.SpikeSignal

	for _, m := range markets {
		if !m.Tradeable(d.cfg.MinLiquidity) {
			continue
		}
		sig, err := d.detect(ctx, m)
		if err != nil {
			d.logger.WarnContext(ctx, "spike check failed",
				slog.String("market", m.ConditionID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if sig != nil {
			signals = append(signals, *sig)
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Confidence > signals[j].Confidence
	})
	return signals
}

// detect evaluates a single market. It returns (nil, nil) when no signal
// qualifies.
func (d *SpikeDetector) detect(ctx context.Context, m domain.Market) (*domain.SpikeSignal, error) {
	tokenYes := m.TokenIDYes
	now := d.now()

	if d.tracker.InCooldown(tokenYes, now) {
		return nil, nil
	}

	baseline, ok := d.tracker.Baseline(tokenYes)
	if !ok {
		// No reference yet; the next baseline pass seeds it.
		return nil, nil
	}

	current, err := d.prices.Price(ctx, tokenYes)
	if err != nil {
		return nil, err
	}

	var fromBaseline float64
	if baseline > 0 {
		fromBaseline = (current - baseline) / baseline
	}

	spikePct := fromBaseline
	if recent, ok := d.tracker.RecentChange(tokenYes); ok && recent > spikePct {
		spikePct = recent
	}

	if spikePct < d.cfg.MinSpikeThreshold {
		return nil, nil
	}

	noPrice, err := d.prices.Price(ctx, m.TokenIDNo)
	if err != nil {
		return nil, err
	}

	confidence := Confidence(spikePct, m.Liquidity, noPrice, d.cfg.MinLiquidity)
	d.tracker.MarkSpike(tokenYes, now)

	d.logger.InfoContext(ctx, "spike detected",
		slog.String("market", m.ConditionID),
		slog.Float64("baseline", baseline),
		slog.Float64("current", current),
		slog.Float64("spike_pct", spikePct),
		slog.Float64("confidence", confidence),
	)

	return &domain.SpikeSignal{
		Market:         m,
		TokenIDNo:      m.TokenIDNo,
		YesPriceBefore: baseline,
		YesPriceAfter:  current,
		SpikePct:       spikePct,
		NoPrice:        noPrice,
		Confidence:     confidence,
		DetectedAt:     now,
	}, nil
}

// Confidence scores a signal from three tiered inputs: spike magnitude,
// market liquidity, and how cheap the NO entry is. It is a pure function;
// the sum of the tier contributions is capped at 1.0.
func Confidence(spikePct, liquidity, noPrice, minLiquidity float64) float64 {
	var score float64

	switch {
	case spikePct >= 0.30:
		score += 0.4
	case spikePct >= 0.20:
		score += 0.3
	default:
		score += 0.2
	}

	switch {
	case liquidity >= 10000:
		score += 0.3
	case liquidity >= 5000:
		score += 0.2
	case liquidity >= minLiquidity:
		score += 0.1
	}

	switch {
	case noPrice <= 0.30:
		score += 0.3
	case noPrice <= 0.50:
		score += 0.2
	default:
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
