package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeSender struct {
	name   string
	titles []string
	err    error
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyEventFilter(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventOrderPlaced, EventPositionExit}, discard())

	if err := n.Notify(context.Background(), EventSpikeDetected, "spike", "m"); err != nil {
		t.Fatalf("filtered notify: %v", err)
	}
	if err := n.Notify(context.Background(), EventOrderPlaced, "placed", "m"); err != nil {
		t.Fatalf("allowed notify: %v", err)
	}

	if len(s.titles) != 1 || s.titles[0] != "placed" {
		t.Fatalf("delivered = %v, want only the allowed event", s.titles)
	}
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, discard())

	_ = n.Notify(context.Background(), EventError, "a", "m")
	_ = n.Notify(context.Background(), EventOrderFilled, "b", "m")

	if len(s.titles) != 2 {
		t.Fatalf("delivered = %v, want both", s.titles)
	}
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventOrderPlaced}, discard())

	if err := n.NotifyAll(context.Background(), "urgent", "m"); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	if len(s.titles) != 1 {
		t.Fatalf("delivered = %v", s.titles)
	}
}

func TestDispatchIsolatesSenderFailure(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("boom")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discard())

	err := n.Notify(context.Background(), EventError, "t", "m")
	if err == nil {
		t.Fatal("expected aggregated error from failing sender")
	}
	if len(good.titles) != 1 {
		t.Fatal("healthy sender must still receive the message")
	}
}

func TestNotifierWithoutSenders(t *testing.T) {
	n := NewNotifier(nil, nil, discard())
	if err := n.Notify(context.Background(), EventError, "t", "m"); err != nil {
		t.Fatalf("no senders should be a no-op, got %v", err)
	}
}
