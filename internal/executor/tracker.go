package executor

import (
	"sync"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

// defaultRetention is how long terminal orders stay in the tracking set.
const defaultRetention = 3600 * time.Second

// Tracker records submitted orders and their lifecycle. Orders enter Open,
// move to Filled when their remaining size reaches zero or to Cancelled on
// an explicit cancel, and are purged once terminal and older than the
// retention window. Open orders are never purged automatically.
//
// The tracker is the only cross-cycle mutable state of the execution layer
// and is safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	orders map[string]*domain.TrackedOrder
}

// NewTracker returns an empty, ready-to-use Tracker.
func NewTracker() *Tracker {
	return &Tracker{orders: make(map[string]*domain.TrackedOrder)}
}

// Add starts tracking a freshly submitted order in the Open state.
func (t *Tracker) Add(orderID, tokenID string, price, size, spikePct float64, params *domain.SmartOrderParams, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.orders[orderID] = &domain.TrackedOrder{
		OrderID:       orderID,
		TokenID:       tokenID,
		Price:         price,
		OriginalSize:  size,
		RemainingSize: size,
		SpikePct:      spikePct,
		Params:        params,
		CreatedAt:     now,
		Status:        domain.OrderStatusOpen,
	}
}

// RecordFill updates the cumulative filled size of an order and promotes
// it to Filled when nothing remains. Fills that would move remaining size
// backwards, and fills on terminal or unknown orders, are ignored.
func (t *Tracker) RecordFill(orderID string, filledSize float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.orders[orderID]
	if !ok || o.Status.Terminal() || filledSize < o.FilledSize {
		return
	}

	o.FilledSize = filledSize
	o.RemainingSize = o.OriginalSize - filledSize
	if o.RemainingSize <= 0 {
		o.RemainingSize = 0
		o.Status = domain.OrderStatusFilled
	}
}

// Cancel marks an order Cancelled regardless of remaining size. Unknown or
// already-terminal orders are left untouched.
func (t *Tracker) Cancel(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.orders[orderID]
	if !ok || o.Status.Terminal() {
		return
	}
	o.Status = domain.OrderStatusCancelled
}

// Get returns a copy of the tracked order and whether it exists.
func (t *Tracker) Get(orderID string) (domain.TrackedOrder, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	o, ok := t.orders[orderID]
	if !ok {
		return domain.TrackedOrder{}, false
	}
	return *o, true
}

// OpenOrders returns copies of all orders still in the Open state.
func (t *Tracker) OpenOrders() []domain.TrackedOrder {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []domain.TrackedOrder
	for _, o := range t.orders {
		if o.Status == domain.OrderStatusOpen {
			out = append(out, *o)
		}
	}
	return out
}

// Age returns how long ago the order was created, or 0 for unknown ids.
func (t *Tracker) Age(orderID string, now time.Time) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	o, ok := t.orders[orderID]
	if !ok {
		return 0
	}
	return now.Sub(o.CreatedAt)
}

// PurgeOlderThan removes terminal orders created more than window ago and
// returns how many were dropped. A non-positive window uses the default
// one-hour retention.
func (t *Tracker) PurgeOlderThan(window time.Duration, now time.Time) int {
	if window <= 0 {
		window = defaultRetention
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, o := range t.orders {
		if o.Status.Terminal() && now.Sub(o.CreatedAt) > window {
			delete(t.orders, id)
			removed++
		}
	}
	return removed
}
