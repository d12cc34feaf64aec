package detector

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDetector(prices fakePrices) (*SpikeDetector, *BaselineTracker) {
	tracker := NewBaselineTracker(300*time.Second, 300*time.Second)
	det := NewSpikeDetector(Config{
		MinSpikeThreshold: 0.20,
		MinLiquidity:      1000,
	}, tracker, prices, testLogger())
	return det, tracker
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name      string
		spikePct  float64
		liquidity float64
		noPrice   float64
		want      float64
	}{
		{"all tiers maxed", 0.35, 12000, 0.25, 1.0},
		{"middle tiers", 0.22, 6000, 0.45, 0.7},
		{"weak signal illiquid market", 0.15, 500, 0.60, 0.3},
		{"boundary values", 0.30, 10000, 0.30, 1.0},
		{"threshold spike thin liquidity", 0.20, 1000, 0.50, 0.6},
		{"expensive no entry", 0.25, 2000, 0.65, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.spikePct, tt.liquidity, tt.noPrice, 1000)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Confidence(%v, %v, %v) = %v, want %v",
					tt.spikePct, tt.liquidity, tt.noPrice, got, tt.want)
			}
		})
	}
}

func TestScanDetectsSpike(t *testing.T) {
	prices := fakePrices{"yes": 0.45, "no": 0.50}
	det, tracker := newTestDetector(prices)

	market := domain.Market{
		ConditionID: "0xcond",
		Question:    "Will it happen?",
		TokenIDYes:  "yes",
		TokenIDNo:   "no",
		Liquidity:   5000,
	}

	now := time.Now()
	tracker.Observe("yes", 0.30, now.Add(-time.Minute))

	signals := det.Scan(context.Background(), []domain.Market{market})
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}

	sig := signals[0]
	if math.Abs(sig.SpikePct-0.5) > 1e-9 {
		t.Fatalf("SpikePct = %v, want 0.5", sig.SpikePct)
	}
	if sig.YesPriceBefore != 0.30 || sig.YesPriceAfter != 0.45 {
		t.Fatalf("prices = %v -> %v, want 0.30 -> 0.45", sig.YesPriceBefore, sig.YesPriceAfter)
	}
	if sig.NoPrice != 0.50 {
		t.Fatalf("NoPrice = %v, want 0.50", sig.NoPrice)
	}
	// 0.4 magnitude + 0.2 liquidity + 0.2 cheap NO.
	if math.Abs(sig.Confidence-0.8) > 1e-9 {
		t.Fatalf("Confidence = %v, want 0.8", sig.Confidence)
	}

	// The detection starts a cooldown; the same market stays quiet.
	signals = det.Scan(context.Background(), []domain.Market{market})
	if len(signals) != 0 {
		t.Fatalf("expected cooldown to suppress re-detection, got %d signals", len(signals))
	}
}

func TestScanBelowThreshold(t *testing.T) {
	prices := fakePrices{"yes": 0.33, "no": 0.67}
	det, tracker := newTestDetector(prices)

	tracker.Observe("yes", 0.30, time.Now().Add(-time.Minute))

	signals := det.Scan(context.Background(), []domain.Market{{
		ConditionID: "c", TokenIDYes: "yes", TokenIDNo: "no", Liquidity: 5000,
	}})
	if len(signals) != 0 {
		t.Fatalf("10%% move should not signal, got %d", len(signals))
	}
}

func TestScanSkipsIlliquidMarkets(t *testing.T) {
	prices := fakePrices{"yes": 0.45, "no": 0.50}
	det, tracker := newTestDetector(prices)
	tracker.Observe("yes", 0.30, time.Now().Add(-time.Minute))

	signals := det.Scan(context.Background(), []domain.Market{{
		ConditionID: "c", TokenIDYes: "yes", TokenIDNo: "no", Liquidity: 500,
	}})
	if len(signals) != 0 {
		t.Fatalf("illiquid market should be skipped, got %d signals", len(signals))
	}
}

func TestScanOrdersByConfidence(t *testing.T) {
	prices := fakePrices{
		"yes-a": 0.45, "no-a": 0.50, // liquidity 2000 -> conf 0.7
		"yes-b": 0.45, "no-b": 0.25, // liquidity 12000 -> conf 1.0
	}
	det, tracker := newTestDetector(prices)
	past := time.Now().Add(-time.Minute)
	tracker.Observe("yes-a", 0.30, past)
	tracker.Observe("yes-b", 0.30, past)

	signals := det.Scan(context.Background(), []domain.Market{
		{ConditionID: "a", TokenIDYes: "yes-a", TokenIDNo: "no-a", Liquidity: 2000},
		{ConditionID: "b", TokenIDYes: "yes-b", TokenIDNo: "no-b", Liquidity: 12000},
	})
	if len(signals) != 2 {
		t.Fatalf("got %d signals, want 2", len(signals))
	}
	if signals[0].Market.ConditionID != "b" {
		t.Fatalf("signals not ordered by confidence: first is %s", signals[0].Market.ConditionID)
	}
}

func TestUpdateBaselinesSkipsFailedFetches(t *testing.T) {
	prices := fakePrices{"yes-ok": 0.40}
	det, tracker := newTestDetector(prices)

	det.UpdateBaselines(context.Background(), []domain.Market{
		{TokenIDYes: "yes-ok", TokenIDNo: "no-ok"},
		{TokenIDYes: "yes-missing", TokenIDNo: "no-missing"},
	})

	if _, ok := tracker.Baseline("yes-ok"); !ok {
		t.Fatal("expected baseline for the reachable token")
	}
	if _, ok := tracker.Baseline("yes-missing"); ok {
		t.Fatal("failed fetch must not seed a baseline")
	}
}
