package domain

import (
	"context"
	"time"
)

// SignalStore persists signal records for detector analytics.
type SignalStore interface {
	Insert(ctx context.Context, rec SignalRecord) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]SignalRecord, error)
	ListBefore(ctx context.Context, before time.Time) ([]SignalRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// TradeStore persists trade records from entry through exit.
type TradeStore interface {
	Insert(ctx context.Context, rec TradeRecord) error
	RecordFill(ctx context.Context, tradeID string, fillPrice, fillTimeSeconds float64) error
	RecordExit(ctx context.Context, tradeID string, exitPrice float64, reason string, pnlDollars, pnlPct float64, outcome TradeOutcome) error
	ListOpen(ctx context.Context) ([]TradeRecord, error)
	ListBefore(ctx context.Context, before time.Time) ([]TradeRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
