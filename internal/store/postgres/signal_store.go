package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

// SignalStore implements domain.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *pgxpool.Pool
}

// NewSignalStore creates a SignalStore backed by the given connection pool.
func NewSignalStore(pool *pgxpool.Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

const signalSelectCols = `id, timestamp, market_id, question,
	yes_price_before, yes_price_after, spike_pct, no_price, confidence,
	spread_bps, bid_depth, ask_depth, book_imbalance, outcome, trade_id`

func scanSignalRows(rows pgx.Rows) ([]domain.SignalRecord, error) {
	var recs []domain.SignalRecord
	for rows.Next() {
		var r domain.SignalRecord
		var outcome string
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &r.MarketID, &r.Question,
			&r.YesPriceBefore, &r.YesPriceAfter, &r.SpikePct, &r.NoPrice, &r.Confidence,
			&r.SpreadBps, &r.BidDepth, &r.AskDepth, &r.BookImbalance, &outcome, &r.TradeID,
		); err != nil {
			return nil, err
		}
		r.Outcome = domain.SignalOutcome(outcome)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Insert stores a signal record and returns its generated id.
func (s *SignalStore) Insert(ctx context.Context, rec domain.SignalRecord) (int64, error) {
	const query = `
		INSERT INTO signals (
			timestamp, market_id, question,
			yes_price_before, yes_price_after, spike_pct, no_price, confidence,
			spread_bps, bid_depth, ask_depth, book_imbalance, outcome, trade_id
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14
		) RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		rec.Timestamp, rec.MarketID, rec.Question,
		rec.YesPriceBefore, rec.YesPriceAfter, rec.SpikePct, rec.NoPrice, rec.Confidence,
		rec.SpreadBps, rec.BidDepth, rec.AskDepth, rec.BookImbalance, string(rec.Outcome), rec.TradeID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert signal: %w", err)
	}
	return id, nil
}

// ListRecent returns the most recent signals, newest first.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]domain.SignalRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + signalSelectCols + ` FROM signals ORDER BY timestamp DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent signals: %w", err)
	}
	defer rows.Close()

	recs, err := scanSignalRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan signals: %w", err)
	}
	return recs, nil
}

// ListBefore returns all signals strictly before the given time, oldest
// first (for archiving).
func (s *SignalStore) ListBefore(ctx context.Context, before time.Time) ([]domain.SignalRecord, error) {
	query := `SELECT ` + signalSelectCols + ` FROM signals WHERE timestamp < $1 ORDER BY timestamp ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list signals before: %w", err)
	}
	defer rows.Close()
	return scanSignalRows(rows)
}

// DeleteBefore deletes all signals before the given time and returns the
// number deleted.
func (s *SignalStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM signals WHERE timestamp < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete signals before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.SignalStore = (*SignalStore)(nil)
