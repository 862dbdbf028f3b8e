package storage

import (
	"context"

	"ea-stress-lab/internal/domain"
)

// ValidationRunStore provides access to validation_runs storage.
type ValidationRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.ValidationRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ValidationRun, error)

	// GetByEA retrieves all runs for an EA, newest first.
	GetByEA(ctx context.Context, eaName string) ([]*domain.ValidationRun, error)

	// List retrieves the most recent runs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*domain.ValidationRun, error)
}

// TradeStore provides access to reconstructed trades keyed by run.
type TradeStore interface {
	// InsertBulk adds a run's trades atomically in close order.
	// Returns ErrDuplicateKey if the run already has trades stored.
	InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error

	// GetByRunID retrieves a run's trades in close order.
	// Returns ErrNotFound if the run has no trades stored.
	GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error)
}

// LeaderboardStore provides access to the strategy leaderboard. Unlike the
// run stores this one is not append-only: re-validating an EA replaces its
// entry.
type LeaderboardStore interface {
	// Upsert inserts or replaces the entry for entry.EAName.
	Upsert(ctx context.Context, entry *domain.RankedStrategy) error

	// GetByEA retrieves one entry. Returns ErrNotFound if not exists.
	GetByEA(ctx context.Context, eaName string) (*domain.RankedStrategy, error)

	// GetAll retrieves all entries ordered by score descending.
	GetAll(ctx context.Context) ([]*domain.RankedStrategy, error)

	// Delete removes an entry. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, eaName string) error
}

// EquityCurveStore provides access to equity_curve timeseries storage.
type EquityCurveStore interface {
	// InsertBulk adds a run's curve points. Fails entire batch on error.
	InsertBulk(ctx context.Context, points []*domain.EquityPoint) error

	// GetByRunID retrieves a run's curve ordered by trade index ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.EquityPoint, error)
}
