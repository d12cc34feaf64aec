package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/config"
	"github.com/Jasuni69/mean-reversion/internal/detector"
	"github.com/Jasuni69/mean-reversion/internal/domain"
	"github.com/Jasuni69/mean-reversion/internal/executor"
	"github.com/Jasuni69/mean-reversion/internal/notify"
	"github.com/Jasuni69/mean-reversion/internal/orderbook"
	"github.com/Jasuni69/mean-reversion/internal/position"
	"github.com/Jasuni69/mean-reversion/internal/strategy"
)

const (
	// cacheFreshness bounds how stale a cached price or book may be before
	// the bot falls back to the REST API.
	cacheFreshness = 10 * time.Second

	// archiveSweepInterval is how often the cold-storage sweep runs.
	archiveSweepInterval = 24 * time.Hour

	// dryFillDelay is how long a simulated order rests before it is
	// considered filled in dry-run mode.
	dryFillDelay = 5 * time.Second

	// breakevenBand classifies exits within this fractional PnL as
	// breakeven rather than win or loss.
	breakevenBand = 0.01
)

// pendingOrder links a resting venue order back to its trade record and the
// position it will open once filled.
type pendingOrder struct {
	tradeID  string
	tokenID  string
	question string
	price    float64
	size     float64
	placedAt time.Time
}

// Bot is the polling core: every scan interval it refreshes baselines,
// scans for spikes, turns qualifying signals into orders, reconciles fills,
// sweeps stale orders, and checks position exits.
type Bot struct {
	cfg    *config.Config
	deps   *Dependencies
	logger *slog.Logger

	prices    *cachedPrices
	detector  *detector.SpikeDetector
	analyzer  *orderbook.Analyzer
	composer  *strategy.Composer
	tracker   *executor.Tracker
	exec      *executor.Executor
	positions *position.Manager

	// pending maps venue order ids to their trade context. Accessed only
	// from the cycle goroutine.
	pending     map[string]pendingOrder
	subscribed  map[string]bool
	feedActive  bool
	lastArchive time.Time
}

// NewBot assembles the trading core on top of wired dependencies.
func NewBot(cfg *config.Config, deps *Dependencies, logger *slog.Logger) *Bot {
	prices := &cachedPrices{cache: deps.PriceCache, clob: deps.Clob}

	analyzer := orderbook.NewAnalyzer(
		cfg.Execution.TickSize,
		cfg.Execution.ThinSpreadBps,
		cfg.Execution.ThinBidDepth,
	)

	baselines := detector.NewBaselineTracker(cfg.Lookback(), cfg.Cooldown())
	spikes := detector.NewSpikeDetector(detector.Config{
		MinSpikeThreshold: cfg.Detector.MinSpikeThreshold,
		MinLiquidity:      cfg.Detector.MinLiquidity,
	}, baselines, prices, logger)

	composer := strategy.NewComposer(strategy.Config{
		MinConfidence:   cfg.Strategy.MinConfidence,
		MinNoPrice:      cfg.Strategy.MinNoPrice,
		MaxNoPrice:      cfg.Strategy.MaxNoPrice,
		MaxPositionSize: cfg.Strategy.MaxPositionSize,
	}, analyzer, logger)

	tracker := executor.NewTracker()
	exec := executor.NewExecutor(deps.Clob, deps.Signer, tracker, analyzer, cfg.DryRun, logger)

	positions := position.NewManager(position.Config{
		MaxOpenPositions: cfg.Positions.MaxOpenPositions,
		TakeProfitPct:    cfg.Positions.TakeProfitPct,
		StopLossPct:      cfg.Positions.StopLossPct,
	}, prices, logger)

	return &Bot{
		cfg:        cfg,
		deps:       deps,
		logger:     logger.With(slog.String("component", "bot")),
		prices:     prices,
		detector:   spikes,
		analyzer:   analyzer,
		composer:   composer,
		tracker:    tracker,
		exec:       exec,
		positions:  positions,
		pending:    make(map[string]pendingOrder),
		subscribed: make(map[string]bool),
	}
}

// Run starts the market data feed (when caches are available) and drives
// the polling loop until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.deps.BookCache != nil {
		if err := b.startFeed(ctx); err != nil {
			// The feed is an optimization; REST covers everything it does.
			b.logger.Warn("market feed unavailable, using REST only",
				slog.String("error", err.Error()),
			)
		} else {
			b.feedActive = true
			defer b.deps.WS.Close()
		}
	}

	b.logger.Info("bot started",
		slog.Bool("dry_run", b.cfg.DryRun),
		slog.Duration("scan_interval", b.cfg.ScanInterval()),
	)

	ticker := time.NewTicker(b.cfg.ScanInterval())
	defer ticker.Stop()

	b.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping")
			return ctx.Err()
		case <-ticker.C:
			b.cycle(ctx)
		}
	}
}

// startFeed connects the WebSocket and pipes snapshots and trade prices
// into the live caches. Handlers run on the read goroutine, so cache writes
// get their own short-lived contexts.
func (b *Bot) startFeed(ctx context.Context) error {
	b.deps.WS.OnBook(func(snap domain.OrderbookSnapshot) {
		wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.deps.BookCache.SetSnapshot(wctx, snap.AssetID, snap); err != nil {
			b.logger.Debug("book cache write failed",
				slog.String("asset", snap.AssetID),
				slog.String("error", err.Error()),
			)
		}
	})

	if b.deps.PriceCache != nil {
		b.deps.WS.OnTradePrice(func(assetID string, price float64, ts time.Time) {
			wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := b.deps.PriceCache.SetPrice(wctx, assetID, price, ts); err != nil {
				b.logger.Debug("price cache write failed",
					slog.String("asset", assetID),
					slog.String("error", err.Error()),
				)
			}
		})
	}

	return b.deps.WS.Connect(ctx)
}

// cycle runs one full pass of the pipeline. Every stage tolerates failures
// in the others; a dead database never stops trading and a dead venue never
// stops bookkeeping.
func (b *Bot) cycle(ctx context.Context) {
	start := time.Now()

	markets, err := b.fetchMarkets(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "market fetch failed", slog.String("error", err.Error()))
		b.notify(ctx, notify.EventError, "Market fetch failed", err.Error())
		return
	}

	b.syncSubscriptions(ctx, markets)
	b.detector.UpdateBaselines(ctx, markets)

	signals := b.detector.Scan(ctx, markets)
	for _, sig := range signals {
		b.handleSignal(ctx, sig)
	}

	b.reconcileFills(ctx)

	for _, orderID := range b.exec.ManageOpenOrders(ctx) {
		b.handleCancelled(ctx, orderID)
	}

	b.positions.Refresh(ctx)
	for _, exit := range b.positions.CheckExits() {
		b.handleExit(ctx, exit)
	}

	b.tracker.PurgeOlderThan(time.Duration(b.cfg.Execution.RetentionSeconds)*time.Second, time.Now())
	b.maybeArchive(ctx)

	b.logger.Debug("cycle complete",
		slog.Int("markets", len(markets)),
		slog.Int("signals", len(signals)),
		slog.Duration("elapsed", time.Since(start)),
	)
}

func (b *Bot) fetchMarkets(ctx context.Context) ([]domain.Market, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout())
	defer cancel()
	return b.deps.Gamma.ActiveMarkets(callCtx, b.cfg.Polymarket.MarketLimit)
}

// syncSubscriptions subscribes the feed to tokens of markets not yet
// covered. Subscriptions are additive; tokens of markets that drop out of
// the top list keep streaming until reconnect.
func (b *Bot) syncSubscriptions(ctx context.Context, markets []domain.Market) {
	if !b.feedActive {
		return
	}

	var fresh []string
	for _, m := range markets {
		for _, token := range []string{m.TokenIDYes, m.TokenIDNo} {
			if !b.subscribed[token] {
				fresh = append(fresh, token)
				b.subscribed[token] = true
			}
		}
	}
	if len(fresh) == 0 {
		return
	}

	if err := b.deps.WS.Subscribe(ctx, fresh); err != nil {
		b.logger.Warn("feed subscribe failed",
			slog.Int("tokens", len(fresh)),
			slog.String("error", err.Error()),
		)
		for _, token := range fresh {
			delete(b.subscribed, token)
		}
	}
}

// handleSignal walks one spike signal through the gate chain: position cap,
// book analysis, composer evaluation, execution. Whatever happens, the
// signal and its outcome are persisted.
func (b *Bot) handleSignal(ctx context.Context, sig domain.SpikeSignal) {
	b.notify(ctx, notify.EventSpikeDetected, "Spike detected",
		fmt.Sprintf("%s\nYES %.2f -> %.2f (+%.1f%%), NO at %.2f, confidence %.2f",
			sig.Market.Question, sig.YesPriceBefore, sig.YesPriceAfter,
			sig.SpikePct*100, sig.NoPrice, sig.Confidence))

	rec := signalRecord(sig)

	an := b.analyzeBook(ctx, sig.TokenIDNo)
	if an != nil {
		rec.SpreadBps = an.SpreadBps
		rec.BidDepth = an.BidDepth1Pct
		rec.AskDepth = an.AskDepth1Pct
		rec.BookImbalance = an.Imbalance
	}

	if !b.positions.CanOpen(sig.TokenIDNo) {
		rec.Outcome = domain.SignalOutcomeSkippedMaxPositions
		b.persistSignal(ctx, rec)
		return
	}

	// A thin book with no bids near the mid leaves nothing to rest behind.
	if an != nil && an.Thin && an.BidDepth1Pct <= 0 {
		rec.Outcome = domain.SignalOutcomeSkippedThinBook
		b.persistSignal(ctx, rec)
		return
	}

	decision := b.composer.Evaluate(sig, an)
	if decision == nil {
		rec.Outcome = domain.SignalOutcomeSkippedConfidence
		b.persistSignal(ctx, rec)
		return
	}
	if !decision.Actionable() {
		rec.Outcome = domain.SignalOutcomeSkippedPriceBounds
		b.logger.Info("signal rejected", slog.String("reason", decision.Reason))
		b.persistSignal(ctx, rec)
		return
	}

	result, trade, err := b.exec.Execute(ctx, *decision)
	if err != nil {
		rec.Outcome = domain.SignalOutcomeMissed
		b.persistSignal(ctx, rec)
		b.logger.ErrorContext(ctx, "execution failed", slog.String("error", err.Error()))
		b.notify(ctx, notify.EventError, "Execution failed", err.Error())
		return
	}

	b.pending[result.OrderID] = pendingOrder{
		tradeID:  trade.TradeID,
		tokenID:  decision.TokenID,
		question: sig.Market.Question,
		price:    decision.LimitPrice,
		size:     decision.Size,
		placedAt: trade.Timestamp,
	}

	if b.deps.TradeStore != nil {
		if err := b.deps.TradeStore.Insert(ctx, trade); err != nil {
			b.logger.ErrorContext(ctx, "trade insert failed", slog.String("error", err.Error()))
		}
	}

	rec.Outcome = domain.SignalOutcomeTraded
	rec.TradeID = trade.TradeID
	b.persistSignal(ctx, rec)

	b.notify(ctx, notify.EventOrderPlaced, "Order placed",
		fmt.Sprintf("%s\nBUY NO %.2f @ %.2f\n%s",
			sig.Market.Question, decision.Size, decision.LimitPrice, decision.Reason))
}

// analyzeBook fetches the NO book (cache first, REST fallback) and analyzes
// it. A nil return sends the composer down its degraded path.
func (b *Bot) analyzeBook(ctx context.Context, tokenID string) *orderbook.Analysis {
	callCtx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout())
	defer cancel()

	if b.deps.BookCache != nil {
		snap, err := b.deps.BookCache.GetSnapshot(callCtx, tokenID)
		if err == nil && time.Since(snap.Timestamp) < cacheFreshness {
			an := b.analyzer.Analyze(snap)
			return &an
		}
	}

	snap, err := b.deps.Clob.Orderbook(callCtx, tokenID)
	if err != nil {
		b.logger.WarnContext(ctx, "book fetch failed",
			slog.String("token", tokenID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	an := b.analyzer.Analyze(snap)
	return &an
}

// reconcileFills compares tracked open orders against the venue and records
// fills. Orders absent from the venue's open list are treated as filled;
// explicit cancellations go through the tracker before this runs. Dry-run
// orders fill after a fixed delay.
func (b *Bot) reconcileFills(ctx context.Context) {
	open := b.tracker.OpenOrders()
	if len(open) == 0 {
		return
	}

	if b.cfg.DryRun {
		now := time.Now()
		for _, o := range open {
			if now.Sub(o.CreatedAt) >= dryFillDelay {
				b.tracker.RecordFill(o.OrderID, o.OriginalSize)
				b.onFilled(ctx, o.OrderID, o.Price)
			}
		}
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout())
	defer cancel()

	venueOrders, err := b.deps.Clob.OpenOrders(callCtx)
	if err != nil {
		b.logger.WarnContext(ctx, "open order fetch failed", slog.String("error", err.Error()))
		return
	}

	for _, o := range open {
		v, onVenue := venueOrders[o.OrderID]
		if onVenue {
			if matched := v.Matched(); matched > o.FilledSize {
				b.tracker.RecordFill(o.OrderID, matched)
			}
		} else {
			b.tracker.RecordFill(o.OrderID, o.OriginalSize)
		}

		if after, ok := b.tracker.Get(o.OrderID); ok && after.Status == domain.OrderStatusFilled {
			b.onFilled(ctx, o.OrderID, o.Price)
		}
	}
}

// onFilled opens the position for a fully filled order and records the fill
// on its trade.
func (b *Bot) onFilled(ctx context.Context, orderID string, fillPrice float64) {
	p, ok := b.pending[orderID]
	if !ok {
		return
	}
	delete(b.pending, orderID)

	fillTime := time.Since(p.placedAt).Seconds()

	if b.deps.TradeStore != nil {
		if err := b.deps.TradeStore.RecordFill(ctx, p.tradeID, fillPrice, fillTime); err != nil {
			b.logger.ErrorContext(ctx, "fill record failed", slog.String("error", err.Error()))
		}
	}

	b.positions.Add(domain.Position{
		TokenID:    p.tokenID,
		Question:   p.question,
		EntryPrice: fillPrice,
		Size:       p.size,
		OrderID:    orderID,
		TradeID:    p.tradeID,
	}, time.Now())

	b.notify(ctx, notify.EventOrderFilled, "Order filled",
		fmt.Sprintf("%s\nNO %.2f @ %.2f after %.0fs", p.question, p.size, fillPrice, fillTime))
}

// handleCancelled closes out the trade behind a cancelled order.
func (b *Bot) handleCancelled(ctx context.Context, orderID string) {
	p, ok := b.pending[orderID]
	if !ok {
		return
	}
	delete(b.pending, orderID)

	if b.deps.TradeStore != nil {
		err := b.deps.TradeStore.RecordExit(ctx, p.tradeID, 0, "cancelled", 0, 0, domain.TradeOutcomeCancelled)
		if err != nil {
			b.logger.ErrorContext(ctx, "cancel record failed", slog.String("error", err.Error()))
		}
	}

	b.notify(ctx, notify.EventOrderCancelled, "Order cancelled",
		fmt.Sprintf("%s\nunfilled NO %.2f @ %.2f", p.question, p.size, p.price))
}

// handleExit closes a position that crossed an exit threshold and records
// the outcome on its trade.
func (b *Bot) handleExit(ctx context.Context, exit position.Exit) {
	pos, ok := b.positions.Close(exit.Position.TokenID)
	if !ok {
		return
	}

	pnlDollars := pos.Size * pos.PnLPct
	outcome := domain.TradeOutcomeLoss
	switch {
	case math.Abs(pos.PnLPct) <= breakevenBand:
		outcome = domain.TradeOutcomeBreakeven
	case pos.PnLPct > 0:
		outcome = domain.TradeOutcomeWin
	}

	if b.deps.TradeStore != nil && pos.TradeID != "" {
		err := b.deps.TradeStore.RecordExit(ctx, pos.TradeID, pos.CurrentPrice, exit.Reason,
			pnlDollars, pos.PnLPct, outcome)
		if err != nil {
			b.logger.ErrorContext(ctx, "exit record failed", slog.String("error", err.Error()))
		}
	}

	b.notify(ctx, notify.EventPositionExit, "Position exit",
		fmt.Sprintf("%s\n%s: %.2f -> %.2f, PnL $%.2f (%.1f%%)",
			pos.Question, exit.Reason, pos.EntryPrice, pos.CurrentPrice,
			pnlDollars, pos.PnLPct*100))
}

// maybeArchive runs the daily cold-storage sweep: aged records move to
// object storage, then get deleted from the primary store. Deletion only
// happens after a successful upload.
func (b *Bot) maybeArchive(ctx context.Context) {
	if b.deps.Archiver == nil || time.Since(b.lastArchive) < archiveSweepInterval {
		return
	}
	b.lastArchive = time.Now()

	before := time.Now().Add(-time.Duration(b.cfg.S3.ArchiveAfterH) * time.Hour)

	if n, err := b.deps.Archiver.ArchiveSignals(ctx, before); err != nil {
		b.logger.ErrorContext(ctx, "signal archive failed", slog.String("error", err.Error()))
	} else if n > 0 {
		if _, err := b.deps.SignalStore.DeleteBefore(ctx, before); err != nil {
			b.logger.ErrorContext(ctx, "signal prune failed", slog.String("error", err.Error()))
		}
		b.logger.Info("signals archived", slog.Int64("count", n))
	}

	if n, err := b.deps.Archiver.ArchiveTrades(ctx, before); err != nil {
		b.logger.ErrorContext(ctx, "trade archive failed", slog.String("error", err.Error()))
	} else if n > 0 {
		if _, err := b.deps.TradeStore.DeleteBefore(ctx, before); err != nil {
			b.logger.ErrorContext(ctx, "trade prune failed", slog.String("error", err.Error()))
		}
		b.logger.Info("trades archived", slog.Int64("count", n))
	}
}

// persistSignal writes a signal record, tolerating a missing store.
func (b *Bot) persistSignal(ctx context.Context, rec domain.SignalRecord) {
	if b.deps.SignalStore == nil {
		return
	}
	if _, err := b.deps.SignalStore.Insert(ctx, rec); err != nil {
		b.logger.ErrorContext(ctx, "signal insert failed", slog.String("error", err.Error()))
	}
}

func (b *Bot) notify(ctx context.Context, event, title, message string) {
	if b.deps.Notifier == nil {
		return
	}
	if err := b.deps.Notifier.Notify(ctx, event, title, message); err != nil {
		b.logger.WarnContext(ctx, "notification failed", slog.String("error", err.Error()))
	}
}

func signalRecord(sig domain.SpikeSignal) domain.SignalRecord {
	return domain.SignalRecord{
		Timestamp:      sig.DetectedAt,
		MarketID:       sig.Market.ConditionID,
		Question:       sig.Market.Question,
		YesPriceBefore: sig.YesPriceBefore,
		YesPriceAfter:  sig.YesPriceAfter,
		SpikePct:       sig.SpikePct,
		NoPrice:        sig.NoPrice,
		Confidence:     sig.Confidence,
		Outcome:        domain.SignalOutcomeMissed,
	}
}

// cachedPrices serves token prices from the live cache when fresh, falling
// back to the CLOB book midpoint. It is the price source for both the
// detector and the position manager.
type cachedPrices struct {
	cache domain.PriceCache
	clob  priceFetcher
}

type priceFetcher interface {
	Price(ctx context.Context, tokenID string) (float64, error)
}

func (c *cachedPrices) Price(ctx context.Context, tokenID string) (float64, error) {
	if c.cache != nil {
		price, ts, err := c.cache.GetPrice(ctx, tokenID)
		if err == nil && time.Since(ts) < cacheFreshness {
			return price, nil
		}
	}
	return c.clob.Price(ctx, tokenID)
}
