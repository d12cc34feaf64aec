// Package detector implements spike detection over a stream of binary-market
// prices: a smoothed per-token baseline, a bounded short-horizon price
// history, and a cooldown clock that suppresses repeat signals.
package detector

import (
	"sync"
	"time"
)

const (
	// baselineAlpha is the EMA smoothing factor. Small on purpose: the
	// baseline must lag behind a spike, or the spike would drag the
	// reference up and hide itself.
	baselineAlpha = 0.1

	defaultLookback = 300 * time.Second
	defaultCooldown = 300 * time.Second
)

// PricePoint records a single price observation at a point in time.
type PricePoint struct {
	Price float64
	Time  time.Time
}

// BaselineTracker maintains, per token, an EMA-smoothed reference price, a
// sliding window of recent observations, and the time of the last emitted
// spike signal. It is safe for concurrent use; all per-token state is
// guarded by a single lock, so callers may fan out across tokens freely.
type BaselineTracker struct {
	mu        sync.RWMutex
	baselines map[string]float64
	history   map[string][]PricePoint
	lastSpike map[string]time.Time
	lookback  time.Duration
	cooldown  time.Duration
}

// NewBaselineTracker creates a tracker with the given history window and
// signal cooldown. Non-positive durations fall back to the 300s defaults.
func NewBaselineTracker(lookback, cooldown time.Duration) *BaselineTracker {
	if lookback <= 0 {
		lookback = defaultLookback
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &BaselineTracker{
		baselines: make(map[string]float64),
		history:   make(map[string][]PricePoint),
		lastSpike: make(map[string]time.Time),
		lookback:  lookback,
		cooldown:  cooldown,
	}
}

// Observe records a price for the token. The first observation seeds the
// baseline; later ones fold in with EMA smoothing. The observation is also
// appended to the history window, and points older than the lookback are
// discarded.
func (t *BaselineTracker) Observe(tokenID string, price float64, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.baselines[tokenID]; ok {
		t.baselines[tokenID] = baselineAlpha*price + (1-baselineAlpha)*old
	} else {
		t.baselines[tokenID] = price
	}

	t.history[tokenID] = append(t.history[tokenID], PricePoint{Price: price, Time: ts})
	t.trimLocked(tokenID, ts)
}

// Baseline returns the smoothed reference price for the token. The second
// return value is false when the token has never been observed.
func (t *BaselineTracker) Baseline(tokenID string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.baselines[tokenID]
	return b, ok
}

// RecentChange returns the fractional price change from the oldest to the
// newest sample in the history window. It reports false when fewer than two
// samples exist or the oldest price is zero.
func (t *BaselineTracker) RecentChange(tokenID string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pts := t.history[tokenID]
	if len(pts) < 2 {
		return 0, false
	}
	oldest := pts[0].Price
	if oldest == 0 {
		return 0, false
	}
	newest := pts[len(pts)-1].Price
	return (newest - oldest) / oldest, true
}

// InCooldown reports whether a signal for the token was emitted within the
// cooldown window ending at now.
func (t *BaselineTracker) InCooldown(tokenID string, now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	last, ok := t.lastSpike[tokenID]
	if !ok {
		return false
	}
	return now.Sub(last) < t.cooldown
}

// MarkSpike records that a signal was emitted for the token at now,
// starting its cooldown window.
func (t *BaselineTracker) MarkSpike(tokenID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSpike[tokenID] = now
}

// History returns a copy of the token's in-window price history.
func (t *BaselineTracker) History(tokenID string) []PricePoint {
	t.mu.RLock()
	defer t.mu.RUnlock()

	src := t.history[tokenID]
	if len(src) == 0 {
		return nil
	}
	out := make([]PricePoint, len(src))
	copy(out, src)
	return out
}

// trimLocked drops history points older than the lookback window relative
// to now. The caller must hold t.mu.
func (t *BaselineTracker) trimLocked(tokenID string, now time.Time) {
	cutoff := now.Add(-t.lookback)
	pts := t.history[tokenID]

	i := 0
	for i < len(pts) && pts[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.history[tokenID] = pts[i:]
	}
}
