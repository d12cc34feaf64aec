// Package executor turns trade decisions into signed CLOB orders and owns
// the lifecycle of resting orders: submission, fill accounting, staleness
// cancellation, and retention.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Jasuni69/mean-reversion/internal/crypto"
	"github.com/Jasuni69/mean-reversion/internal/domain"
	"github.com/Jasuni69/mean-reversion/internal/orderbook"
)

// usdcScale converts probability-priced dollars to the 6-decimal integer
// amounts the CLOB contract expects.
const usdcScale = 1e6

// Venue is the slice of the CLOB client the executor needs.
type Venue interface {
	PostOrder(ctx context.Context, order domain.Order) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	Orderbook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error)
}

// Executor submits decisions to the venue and manages the resting orders it
// creates. In dry-run mode nothing reaches the venue; orders are tracked
// with synthetic ids so the rest of the pipeline behaves identically.
type Executor struct {
	venue    Venue
	signer   *crypto.Signer
	tracker  *Tracker
	analyzer *orderbook.Analyzer
	logger   *slog.Logger
	dryRun   bool

	now func() time.Time
}

// NewExecutor creates an Executor. signer may be nil only when dryRun is
// true.
func NewExecutor(venue Venue, signer *crypto.Signer, tracker *Tracker, analyzer *orderbook.Analyzer, dryRun bool, logger *slog.Logger) *Executor {
	return &Executor{
		venue:    venue,
		signer:   signer,
		tracker:  tracker,
		analyzer: analyzer,
		logger:   logger.With(slog.String("component", "executor")),
		dryRun:   dryRun,
		now:      time.Now,
	}
}

// Execute submits an actionable decision as a signed limit order and starts
// tracking it. It returns the venue result and the trade record the caller
// should persist.
func (e *Executor) Execute(ctx context.Context, decision domain.TradeDecision) (domain.OrderResult, domain.TradeRecord, error) {
	if !decision.Actionable() {
		return domain.OrderResult{}, domain.TradeRecord{}, fmt.Errorf("executor: %w: zero-size decision", domain.ErrInvalidOrder)
	}

	now := e.now()
	tradeID := uuid.New().String()

	var result domain.OrderResult
	if e.dryRun {
		result = domain.OrderResult{
			Success: true,
			OrderID: "dry-" + tradeID,
		}
		e.logger.Info("dry run, order not submitted",
			slog.String("token", decision.TokenID),
			slog.Float64("price", decision.LimitPrice),
			slog.Float64("size", decision.Size),
		)
	} else {
		order, err := e.buildOrder(decision, now)
		if err != nil {
			return domain.OrderResult{}, domain.TradeRecord{}, err
		}

		result, err = e.venue.PostOrder(ctx, order)
		if err != nil {
			return result, domain.TradeRecord{}, fmt.Errorf("executor: submit: %w", err)
		}
	}

	e.tracker.Add(result.OrderID, decision.TokenID, decision.LimitPrice, decision.Size,
		decision.Signal.SpikePct, decision.Params, now)

	rec := domain.TradeRecord{
		TradeID:        tradeID,
		Timestamp:      now,
		MarketID:       decision.Signal.Market.ConditionID,
		Question:       decision.Signal.Market.Question,
		SignalSpikePct: decision.Signal.SpikePct,
		EntryPrice:     decision.LimitPrice,
		EntrySize:      decision.Size,
		Outcome:        domain.TradeOutcomePending,
	}
	if decision.Params != nil {
		rec.Urgency = decision.Params.Urgency.String()
		rec.QueuePosition = decision.Params.QueuePosition
	}

	e.logger.Info("order placed",
		slog.String("order_id", result.OrderID),
		slog.String("token", decision.TokenID),
		slog.Float64("price", decision.LimitPrice),
		slog.Float64("size", decision.Size),
		slog.String("reason", decision.Reason),
	)

	return result, rec, nil
}

// buildOrder converts a decision into a signed domain.Order.
func (e *Executor) buildOrder(decision domain.TradeDecision, now time.Time) (domain.Order, error) {
	if e.signer == nil {
		return domain.Order{}, fmt.Errorf("executor: %w: no signer configured", domain.ErrSigningFailed)
	}

	// BUY: maker pays USDC (price*size), taker delivers outcome shares.
	makerAmount := big.NewInt(int64(math.Round(decision.LimitPrice * decision.Size * usdcScale)))
	takerAmount := big.NewInt(int64(math.Round(decision.Size * usdcScale)))

	wallet := e.signer.Address().Hex()

	payload := crypto.OrderPayload{
		Salt:          strconv.FormatInt(now.UnixNano(), 10),
		Maker:         wallet,
		Signer:        wallet,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       decision.TokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0, // BUY
		SignatureType: 0,
	}

	sig, err := e.signer.SignOrder(payload)
	if err != nil {
		return domain.Order{}, fmt.Errorf("executor: %w: %v", domain.ErrSigningFailed, err)
	}

	return domain.Order{
		TokenID:     decision.TokenID,
		Wallet:      wallet,
		Side:        decision.Side,
		Price:       decision.LimitPrice,
		Size:        decision.Size,
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Signature:   sig,
		CreatedAt:   now,
	}, nil
}

// ManageOpenOrders fetches the current book for each open order, applies
// the staleness policy, and cancels orders that have gone stale. A failure
// on one order does not stop the sweep. It returns the ids cancelled.
func (e *Executor) ManageOpenOrders(ctx context.Context) []string {
	var cancelled []string
	now := e.now()

	for _, o := range e.tracker.OpenOrders() {
		snap, err := e.venue.Orderbook(ctx, o.TokenID)
		if err != nil {
			e.logger.WarnContext(ctx, "book fetch failed during order sweep",
				slog.String("order_id", o.OrderID),
				slog.String("error", err.Error()),
			)
			continue
		}

		an := e.analyzer.Analyze(snap)
		age := now.Sub(o.CreatedAt).Seconds()

		stale, reason := e.analyzer.ShouldCancel(o.Price, age, an, o.SpikePct)
		if !stale {
			continue
		}

		if !e.dryRun {
			if err := e.venue.CancelOrder(ctx, o.OrderID); err != nil {
				e.logger.ErrorContext(ctx, "cancel failed",
					slog.String("order_id", o.OrderID),
					slog.String("error", err.Error()),
				)
				continue
			}
		}

		e.tracker.Cancel(o.OrderID)
		cancelled = append(cancelled, o.OrderID)

		e.logger.Info("order cancelled",
			slog.String("order_id", o.OrderID),
			slog.String("reason", reason),
			slog.Float64("age_seconds", age),
		)
	}

	return cancelled
}
