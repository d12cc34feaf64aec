// Package position tracks open NO positions and drives take-profit and
// stop-loss exits. The core consults it before acting on a signal; it is
// the source of the max-positions-reached rejection.
package position

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

// PriceSource supplies the current price of a token for PnL refresh.
type PriceSource interface {
	Price(ctx context.Context, tokenID string) (float64, error)
}

// Config holds position limits and exit thresholds.
type Config struct {
	MaxOpenPositions int     // default 5
	TakeProfitPct    float64 // exit at this fractional gain, default 0.15
	StopLossPct      float64 // exit at this fractional loss, default 0.30
}

// Exit describes a position that hit an exit threshold.
type Exit struct {
	Position domain.Position
	Reason   string // "take_profit" or "stop_loss"
}

// Manager tracks at most one open position per token, bounded by the
// configured maximum. It is safe for concurrent use.
type Manager struct {
	cfg    Config
	prices PriceSource
	logger *slog.Logger

	mu        sync.RWMutex
	positions map[string]*domain.Position
}

// NewManager creates a Manager. Zero config values take their defaults
// (5 positions, 15% take-profit, 30% stop-loss).
func NewManager(cfg Config, prices PriceSource, logger *slog.Logger) *Manager {
	if cfg.MaxOpenPositions <= 0 {
		cfg.MaxOpenPositions = 5
	}
	if cfg.TakeProfitPct <= 0 {
		cfg.TakeProfitPct = 0.15
	}
	if cfg.StopLossPct <= 0 {
		cfg.StopLossPct = 0.30
	}
	return &Manager{
		cfg:       cfg,
		prices:    prices,
		logger:    logger.With(slog.String("component", "positions")),
		positions: make(map[string]*domain.Position),
	}
}

// CanOpen reports whether a new position in the token is allowed: no
// existing position for it and the position cap not yet reached.
func (m *Manager) CanOpen(tokenID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.positions[tokenID]; ok {
		return false
	}
	return len(m.positions) < m.cfg.MaxOpenPositions
}

// Add records a new position at its entry price.
func (m *Manager) Add(pos domain.Position, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos.EntryTime = now
	pos.CurrentPrice = pos.EntryPrice
	m.positions[pos.TokenID] = &pos

	m.logger.Info("position opened",
		slog.String("token", pos.TokenID),
		slog.Float64("entry", pos.EntryPrice),
		slog.Float64("size", pos.Size),
	)
}

// Refresh updates current price and PnL for every open position. A failed
// price fetch leaves that position's last values in place.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for tokenID, pos := range m.positions {
		price, err := m.prices.Price(ctx, tokenID)
		if err != nil {
			m.logger.WarnContext(ctx, "position refresh failed",
				slog.String("token", tokenID),
				slog.String("error", err.Error()),
			)
			continue
		}
		pos.CurrentPrice = price
		if pos.EntryPrice > 0 {
			pos.PnLPct = (price - pos.EntryPrice) / pos.EntryPrice
		}
	}
}

// CheckExits returns the positions that crossed an exit threshold. It does
// not close them; the caller decides when the exit order has gone through.
func (m *Manager) CheckExits() []Exit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var exits []Exit
	for _, pos := range m.positions {
		switch {
		case pos.PnLPct >= m.cfg.TakeProfitPct:
			exits = append(exits, Exit{Position: *pos, Reason: "take_profit"})
		case pos.PnLPct <= -m.cfg.StopLossPct:
			exits = append(exits, Exit{Position: *pos, Reason: "stop_loss"})
		}
	}
	return exits
}

// Close removes a position from tracking and returns it.
func (m *Manager) Close(tokenID string) (domain.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[tokenID]
	if !ok {
		return domain.Position{}, false
	}
	delete(m.positions, tokenID)

	m.logger.Info("position closed",
		slog.String("token", tokenID),
		slog.Float64("pnl_pct", pos.PnLPct),
	)
	return *pos, true
}

// Open returns copies of all open positions.
func (m *Manager) Open() []domain.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, *p)
	}
	return out
}

// TotalExposure returns the summed dollar size of all open positions.
func (m *Manager) TotalExposure() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	for _, p := range m.positions {
		total += p.Size
	}
	return total
}
