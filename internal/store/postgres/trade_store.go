package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `trade_id, timestamp, market_id, question,
	signal_spike_pct, entry_price, entry_size, urgency, queue_position,
	fill_price, fill_time_seconds,
	exit_timestamp, exit_price, exit_reason,
	pnl_dollars, pnl_pct, outcome`

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var recs []domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		var outcome string
		if err := rows.Scan(
			&r.TradeID, &r.Timestamp, &r.MarketID, &r.Question,
			&r.SignalSpikePct, &r.EntryPrice, &r.EntrySize, &r.Urgency, &r.QueuePosition,
			&r.FillPrice, &r.FillTimeSeconds,
			&r.ExitTimestamp, &r.ExitPrice, &r.ExitReason,
			&r.PnLDollars, &r.PnLPct, &outcome,
		); err != nil {
			return nil, err
		}
		r.Outcome = domain.TradeOutcome(outcome)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Insert stores a new trade record at entry time.
func (s *TradeStore) Insert(ctx context.Context, rec domain.TradeRecord) error {
	const query = `
		INSERT INTO trades (
			trade_id, timestamp, market_id, question,
			signal_spike_pct, entry_price, entry_size, urgency, queue_position,
			outcome
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10
		) ON CONFLICT (trade_id) DO NOTHING`

	outcome := rec.Outcome
	if outcome == "" {
		outcome = domain.TradeOutcomePending
	}

	if _, err := s.pool.Exec(ctx, query,
		rec.TradeID, rec.Timestamp, rec.MarketID, rec.Question,
		rec.SignalSpikePct, rec.EntryPrice, rec.EntrySize, rec.Urgency, rec.QueuePosition,
		string(outcome),
	); err != nil {
		return fmt.Errorf("postgres: insert trade %s: %w", rec.TradeID, err)
	}
	return nil
}

// RecordFill updates a trade with its actual fill price and time-to-fill.
func (s *TradeStore) RecordFill(ctx context.Context, tradeID string, fillPrice, fillTimeSeconds float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE trades SET fill_price = $2, fill_time_seconds = $3 WHERE trade_id = $1`,
		tradeID, fillPrice, fillTimeSeconds,
	)
	if err != nil {
		return fmt.Errorf("postgres: record fill %s: %w", tradeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: record fill %s: %w", tradeID, domain.ErrNotFound)
	}
	return nil
}

// RecordExit closes a trade with its exit details and final outcome.
func (s *TradeStore) RecordExit(ctx context.Context, tradeID string, exitPrice float64, reason string, pnlDollars, pnlPct float64, outcome domain.TradeOutcome) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE trades
		 SET exit_timestamp = NOW(), exit_price = $2, exit_reason = $3,
		     pnl_dollars = $4, pnl_pct = $5, outcome = $6
		 WHERE trade_id = $1`,
		tradeID, exitPrice, reason, pnlDollars, pnlPct, string(outcome),
	)
	if err != nil {
		return fmt.Errorf("postgres: record exit %s: %w", tradeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: record exit %s: %w", tradeID, domain.ErrNotFound)
	}
	return nil
}

// ListOpen returns trades still pending an exit, oldest first.
func (s *TradeStore) ListOpen(ctx context.Context) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE outcome = 'pending' ORDER BY timestamp ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list open trades: %w", err)
	}
	defer rows.Close()

	recs, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan open trades: %w", err)
	}
	return recs, nil
}

// ListBefore returns all trades strictly before the given time, oldest
// first (for archiving).
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE timestamp < $1 ORDER BY timestamp ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before: %w", err)
	}
	defer rows.Close()
	return scanTradeRows(rows)
}

// DeleteBefore deletes all trades before the given time and returns the
// number deleted.
func (s *TradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE timestamp < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
