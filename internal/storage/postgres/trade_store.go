package postgres

import (
	"context"
	"fmt"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL. Trades are
// keyed by (run_id, close_index), so a run's trades can only be written once.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a run's trades atomically in close order. Returns
// ErrDuplicateKey if the run already has trades stored.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// The sentinel row marks the run as stored even when it had no trades.
	if _, err := tx.Exec(ctx,
		`INSERT INTO trade_batches (run_id, trade_count) VALUES ($1, $2)`,
		runID, len(trades),
	); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade batch: %w", err)
	}

	query := `
		INSERT INTO trades (
			run_id, close_index, deal_id, open_time, close_time, symbol, direction,
			volume, entry_price, exit_price, commission, swap, profit, net_profit, comment
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	for i, t := range trades {
		if _, err := tx.Exec(ctx, query,
			runID,
			i,
			t.DealID,
			t.OpenTime,
			t.CloseTime,
			t.Symbol,
			t.Direction,
			t.Volume,
			t.EntryPrice,
			t.ExitPrice,
			t.Commission,
			t.Swap,
			t.Profit,
			t.NetProfit,
			t.Comment,
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's trades in close order. Returns ErrNotFound
// if the run has no trades stored.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT trade_count FROM trade_batches WHERE run_id = $1`, runID,
	).Scan(&count)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade batch: %w", err)
	}

	query := `
		SELECT deal_id, open_time, close_time, symbol, direction,
			volume, entry_price, exit_price, commission, swap, profit, net_profit, comment
		FROM trades WHERE run_id = $1 ORDER BY close_index
	`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Trade, 0, count)
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(
			&t.DealID,
			&t.OpenTime,
			&t.CloseTime,
			&t.Symbol,
			&t.Direction,
			&t.Volume,
			&t.EntryPrice,
			&t.ExitPrice,
			&t.Commission,
			&t.Swap,
			&t.Profit,
			&t.NetProfit,
			&t.Comment,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
