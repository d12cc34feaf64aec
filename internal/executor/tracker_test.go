package executor

import (
	"testing"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	tr.Add("ord-1", "tok", 0.50, 100, 0.25, nil, now)

	o, ok := tr.Get("ord-1")
	if !ok || o.Status != domain.OrderStatusOpen {
		t.Fatalf("order = %+v, want open", o)
	}
	if o.RemainingSize != 100 {
		t.Fatalf("remaining = %v, want 100", o.RemainingSize)
	}

	tr.RecordFill("ord-1", 40)
	o, _ = tr.Get("ord-1")
	if o.Status != domain.OrderStatusOpen || o.RemainingSize != 60 {
		t.Fatalf("partial fill: %+v", o)
	}

	tr.RecordFill("ord-1", 100)
	o, _ = tr.Get("ord-1")
	if o.Status != domain.OrderStatusFilled || o.RemainingSize != 0 {
		t.Fatalf("full fill: %+v", o)
	}
}

func TestTrackerFillMonotonic(t *testing.T) {
	tr := NewTracker()
	tr.Add("ord-1", "tok", 0.50, 100, 0.25, nil, time.Now())

	tr.RecordFill("ord-1", 60)
	tr.RecordFill("ord-1", 40) // stale update, must be ignored

	o, _ := tr.Get("ord-1")
	if o.FilledSize != 60 {
		t.Fatalf("filled = %v, want 60", o.FilledSize)
	}
}

func TestTrackerCancel(t *testing.T) {
	tr := NewTracker()
	tr.Add("ord-1", "tok", 0.50, 100, 0.25, nil, time.Now())

	tr.Cancel("ord-1")
	o, _ := tr.Get("ord-1")
	if o.Status != domain.OrderStatusCancelled {
		t.Fatalf("status = %v, want cancelled", o.Status)
	}

	// Fills after cancellation are ignored.
	tr.RecordFill("ord-1", 100)
	o, _ = tr.Get("ord-1")
	if o.Status != domain.OrderStatusCancelled || o.FilledSize != 0 {
		t.Fatalf("terminal order mutated: %+v", o)
	}

	// Cancelling unknown orders is a no-op.
	tr.Cancel("ghost")
}

func TestTrackerOpenOrders(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Add("a", "tok", 0.50, 100, 0.25, nil, now)
	tr.Add("b", "tok", 0.50, 100, 0.25, nil, now)
	tr.Cancel("b")

	open := tr.OpenOrders()
	if len(open) != 1 || open[0].OrderID != "a" {
		t.Fatalf("open = %+v, want just a", open)
	}
}

func TestTrackerPurge(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	tr.Add("old-filled", "tok", 0.50, 100, 0.25, nil, now.Add(-2*time.Hour))
	tr.RecordFill("old-filled", 100)
	tr.Add("old-open", "tok", 0.50, 100, 0.25, nil, now.Add(-2*time.Hour))
	tr.Add("new-filled", "tok", 0.50, 100, 0.25, nil, now.Add(-10*time.Minute))
	tr.RecordFill("new-filled", 100)

	removed := tr.PurgeOlderThan(time.Hour, now)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := tr.Get("old-filled"); ok {
		t.Fatal("aged terminal order should be purged")
	}
	if _, ok := tr.Get("old-open"); !ok {
		t.Fatal("open orders must never be purged")
	}
	if _, ok := tr.Get("new-filled"); !ok {
		t.Fatal("recent terminal order purged too early")
	}
}

func TestTrackerAge(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Add("a", "tok", 0.50, 100, 0.25, nil, now.Add(-90*time.Second))

	if age := tr.Age("a", now); age != 90*time.Second {
		t.Fatalf("age = %v, want 90s", age)
	}
	if age := tr.Age("ghost", now); age != 0 {
		t.Fatalf("unknown order age = %v, want 0", age)
	}
}
