package position

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

type fakePrices map[string]float64

func (f fakePrices) Price(_ context.Context, tokenID string) (float64, error) {
	p, ok := f[tokenID]
	if !ok {
		return 0, errors.New("no price")
	}
	return p, nil
}

func newTestManager(prices fakePrices) *Manager {
	return NewManager(Config{
		MaxOpenPositions: 2,
		TakeProfitPct:    0.15,
		StopLossPct:      0.30,
	}, prices, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCanOpenCap(t *testing.T) {
	m := newTestManager(fakePrices{})
	now := time.Now()

	if !m.CanOpen("a") {
		t.Fatal("empty manager should allow opening")
	}

	m.Add(domain.Position{TokenID: "a", EntryPrice: 0.5, Size: 50}, now)
	if m.CanOpen("a") {
		t.Fatal("duplicate token must be rejected")
	}

	m.Add(domain.Position{TokenID: "b", EntryPrice: 0.5, Size: 50}, now)
	if m.CanOpen("c") {
		t.Fatal("cap of 2 reached, third position must be rejected")
	}

	m.Close("a")
	if !m.CanOpen("c") {
		t.Fatal("closing should free a slot")
	}
}

func TestRefreshAndExits(t *testing.T) {
	prices := fakePrices{"tp": 0.60, "sl": 0.30, "hold": 0.52}
	m := newTestManager(prices)
	now := time.Now()

	m.Add(domain.Position{TokenID: "tp", TradeID: "t1", EntryPrice: 0.50, Size: 50}, now)
	m.Add(domain.Position{TokenID: "sl", TradeID: "t2", EntryPrice: 0.50, Size: 50}, now)

	m.Refresh(context.Background())

	exits := m.CheckExits()
	if len(exits) != 2 {
		t.Fatalf("got %d exits, want 2", len(exits))
	}

	byToken := map[string]Exit{}
	for _, e := range exits {
		byToken[e.Position.TokenID] = e
	}

	tp, ok := byToken["tp"]
	if !ok || tp.Reason != "take_profit" {
		t.Fatalf("tp exit = %+v", tp)
	}
	if math.Abs(tp.Position.PnLPct-0.20) > 1e-9 {
		t.Fatalf("tp pnl = %v, want 0.20", tp.Position.PnLPct)
	}

	sl, ok := byToken["sl"]
	if !ok || sl.Reason != "stop_loss" {
		t.Fatalf("sl exit = %+v", sl)
	}
	if math.Abs(sl.Position.PnLPct+0.40) > 1e-9 {
		t.Fatalf("sl pnl = %v, want -0.40", sl.Position.PnLPct)
	}
}

func TestRefreshSmallMoveNoExit(t *testing.T) {
	m := newTestManager(fakePrices{"hold": 0.52})
	m.Add(domain.Position{TokenID: "hold", EntryPrice: 0.50, Size: 50}, time.Now())

	m.Refresh(context.Background())
	if exits := m.CheckExits(); len(exits) != 0 {
		t.Fatalf("4%% move should not exit, got %+v", exits)
	}
}

func TestRefreshToleratesFailedFetch(t *testing.T) {
	m := newTestManager(fakePrices{})
	m.Add(domain.Position{TokenID: "ghost", EntryPrice: 0.50, Size: 50}, time.Now())

	m.Refresh(context.Background())

	open := m.Open()
	if len(open) != 1 {
		t.Fatalf("open = %+v", open)
	}
	// Entry values stay in place when the fetch fails.
	if open[0].CurrentPrice != 0.50 || open[0].PnLPct != 0 {
		t.Fatalf("position mutated on failed refresh: %+v", open[0])
	}
}

func TestCloseUnknownToken(t *testing.T) {
	m := newTestManager(fakePrices{})
	if _, ok := m.Close("nope"); ok {
		t.Fatal("closing unknown token should report false")
	}
}

func TestTotalExposure(t *testing.T) {
	m := newTestManager(fakePrices{})
	now := time.Now()
	m.Add(domain.Position{TokenID: "a", EntryPrice: 0.5, Size: 40}, now)
	m.Add(domain.Position{TokenID: "b", EntryPrice: 0.5, Size: 60}, now)

	if got := m.TotalExposure(); got != 100 {
		t.Fatalf("exposure = %v, want 100", got)
	}
}
