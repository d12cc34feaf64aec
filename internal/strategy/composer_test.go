package strategy

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
	"github.com/Jasuni69/mean-reversion/internal/orderbook"
)

func testComposer() *Composer {
	return NewComposer(Config{
		MinConfidence:   0.5,
		MinNoPrice:      0.10,
		MaxNoPrice:      0.70,
		MaxPositionSize: 100,
	}, orderbook.NewAnalyzer(0.01, 500, 500), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testSignal(confidence, spikePct, noPrice float64) domain.SpikeSignal {
	return domain.SpikeSignal{
		Market:     domain.Market{ConditionID: "c", Question: "q?"},
		TokenIDNo:  "no-token",
		SpikePct:   spikePct,
		NoPrice:    noPrice,
		Confidence: confidence,
		DetectedAt: time.Now(),
	}
}

func deepAnalysis() *orderbook.Analysis {
	return &orderbook.Analysis{
		BestBid:      0.48,
		BestAsk:      0.50,
		SpreadBps:    416,
		BidDepth1Pct: 2000,
		AskDepth1Pct: 2000,
	}
}

func TestEvaluateBelowConfidence(t *testing.T) {
	if d := testComposer().Evaluate(testSignal(0.4, 0.25, 0.50), deepAnalysis()); d != nil {
		t.Fatalf("expected nil decision below confidence floor, got %+v", d)
	}
}

func TestEvaluatePriceBounds(t *testing.T) {
	c := testComposer()

	d := c.Evaluate(testSignal(0.8, 0.25, 0.05), deepAnalysis())
	if d == nil || d.Actionable() {
		t.Fatalf("cheap NO should yield a zero-size rejection, got %+v", d)
	}
	if !strings.Contains(d.Reason, "too low") {
		t.Fatalf("reason = %q", d.Reason)
	}

	d = c.Evaluate(testSignal(0.8, 0.25, 0.80), deepAnalysis())
	if d == nil || d.Actionable() {
		t.Fatalf("expensive NO should yield a zero-size rejection, got %+v", d)
	}
	if !strings.Contains(d.Reason, "too high") {
		t.Fatalf("reason = %q", d.Reason)
	}
}

func TestEvaluateSizing(t *testing.T) {
	c := testComposer()

	tests := []struct {
		name       string
		confidence float64
		spikePct   float64
		wantSize   float64
	}{
		{"full size", 0.8, 0.35, 80},   // 100 * 0.8
		{"large spike", 0.8, 0.27, 64}, // * 0.8
		{"small spike", 0.8, 0.22, 48}, // * 0.6
		{"floored", 0.5, 0.22, 30},     // 100*0.5*0.6
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Evaluate(testSignal(tt.confidence, tt.spikePct, 0.40), deepAnalysis())
			if d == nil || !d.Actionable() {
				t.Fatalf("expected actionable decision, got %+v", d)
			}
			if math.Abs(d.Size-tt.wantSize) > 1e-9 {
				t.Fatalf("size = %v, want %v", d.Size, tt.wantSize)
			}
		})
	}
}

func TestEvaluateMinimumViableSize(t *testing.T) {
	c := NewComposer(Config{
		MinConfidence:   0.5,
		MinNoPrice:      0.10,
		MaxNoPrice:      0.70,
		MaxPositionSize: 20,
	}, orderbook.NewAnalyzer(0.01, 500, 500), slog.New(slog.NewTextHandler(io.Discard, nil)))

	// 20 * 0.5 * 0.6 = 6, floored to 10.
	d := c.Evaluate(testSignal(0.5, 0.22, 0.40), deepAnalysis())
	if d == nil || d.Size != 10 {
		t.Fatalf("expected floor at 10, got %+v", d)
	}
}

func TestEvaluateThinBookClamp(t *testing.T) {
	c := testComposer()

	thin := &orderbook.Analysis{
		BestBid:      0.48,
		BestAsk:      0.50,
		BidDepth1Pct: 100,
		Thin:         true,
	}

	d := c.Evaluate(testSignal(0.8, 0.35, 0.40), thin)
	if d == nil || !d.Actionable() {
		t.Fatalf("expected actionable decision, got %+v", d)
	}
	// 80 clamped to 100*0.3 = 30.
	if math.Abs(d.Size-30) > 1e-9 {
		t.Fatalf("size = %v, want 30", d.Size)
	}

	// Depth so low the clamp drops below the viability floor.
	thin.BidDepth1Pct = 10
	d = c.Evaluate(testSignal(0.8, 0.35, 0.40), thin)
	if d == nil || d.Size != 10 {
		t.Fatalf("clamped size should re-floor at 10, got %+v", d)
	}
}

func TestEvaluateWithoutBook(t *testing.T) {
	c := testComposer()

	d := c.Evaluate(testSignal(0.8, 0.35, 0.40), nil)
	if d == nil || !d.Actionable() {
		t.Fatalf("degraded path should still decide, got %+v", d)
	}
	if math.Abs(d.LimitPrice-0.42) > 1e-9 {
		t.Fatalf("limit = %v, want NoPrice+0.02", d.LimitPrice)
	}
	if d.Params != nil {
		t.Fatal("no book means no smart order params")
	}

	d = c.Evaluate(testSignal(0.8, 0.35, 0.69), nil)
	if d == nil || math.Abs(d.LimitPrice-0.71) > 1e-9 {
		t.Fatalf("limit = %+v, want 0.71", d)
	}
}
