package postgres

import (
	"context"
	"fmt"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// ValidationRunStore implements storage.ValidationRunStore using PostgreSQL.
type ValidationRunStore struct {
	pool *Pool
}

// NewValidationRunStore creates a new ValidationRunStore.
func NewValidationRunStore(pool *Pool) *ValidationRunStore {
	return &ValidationRunStore{pool: pool}
}

var _ storage.ValidationRunStore = (*ValidationRunStore)(nil)

const runColumns = `
	run_id, ea_name, symbol, timeframe, from_date, to_date, created_at,
	trade_count, initial_balance, final_balance, total_net_profit, total_commission, total_swap,
	iterations, median_profit, profit_5th_percentile, confidence_level, probability_of_ruin, monte_carlo_robust,
	total_passes, robust_passes
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ValidationRunStore) Insert(ctx context.Context, run *domain.ValidationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO validation_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := s.pool.Exec(ctx, query,
		run.RunID,
		run.EAName,
		run.Symbol,
		run.Timeframe,
		run.FromDate,
		run.ToDate,
		run.CreatedAt,
		run.TradeCount,
		run.InitialBalance,
		run.FinalBalance,
		run.TotalNetProfit,
		run.TotalCommission,
		run.TotalSwap,
		run.Iterations,
		run.MedianProfit,
		run.Profit5thPercentile,
		run.ConfidenceLevel,
		run.ProbabilityOfRuin,
		run.MonteCarloRobust,
		run.TotalPasses,
		run.RobustPasses,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert validation run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ValidationRunStore) GetByID(ctx context.Context, runID string) (*domain.ValidationRun, error) {
	query := `SELECT ` + runColumns + ` FROM validation_runs WHERE run_id = $1`

	run, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get validation run: %w", err)
	}
	return run, nil
}

// GetByEA retrieves all runs for an EA, newest first.
func (s *ValidationRunStore) GetByEA(ctx context.Context, eaName string) ([]*domain.ValidationRun, error) {
	query := `SELECT ` + runColumns + ` FROM validation_runs WHERE ea_name = $1 ORDER BY created_at DESC, run_id`

	rows, err := s.pool.Query(ctx, query, eaName)
	if err != nil {
		return nil, fmt.Errorf("query runs by ea: %w", err)
	}
	defer rows.Close()

	var result []*domain.ValidationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// List retrieves the most recent runs, newest first. limit <= 0 means all.
func (s *ValidationRunStore) List(ctx context.Context, limit int) ([]*domain.ValidationRun, error) {
	query := `SELECT ` + runColumns + ` FROM validation_runs ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*domain.ValidationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.ValidationRun, error) {
	var run domain.ValidationRun
	err := row.Scan(
		&run.RunID,
		&run.EAName,
		&run.Symbol,
		&run.Timeframe,
		&run.FromDate,
		&run.ToDate,
		&run.CreatedAt,
		&run.TradeCount,
		&run.InitialBalance,
		&run.FinalBalance,
		&run.TotalNetProfit,
		&run.TotalCommission,
		&run.TotalSwap,
		&run.Iterations,
		&run.MedianProfit,
		&run.Profit5thPercentile,
		&run.ConfidenceLevel,
		&run.ProbabilityOfRuin,
		&run.MonteCarloRobust,
		&run.TotalPasses,
		&run.RobustPasses,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
