package clickhouse

import (
	"context"
	"fmt"
	"time"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/observability"
	"ea-stress-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds a run's curve points.
func (s *EquityCurveStore) InsertBulk(ctx context.Context, points []*domain.EquityPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "insert", time.Since(start).Seconds(), err) }()
	for _, p := range points {
		if p == nil || p.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curve (run_id, trade_index, equity, drawdown)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.RunID, uint32(p.TradeIndex), p.Equity, p.Drawdown); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's curve ordered by trade index ASC.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) (result []*domain.EquityPoint, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "select", time.Since(start).Seconds(), err) }()

	query := `
		SELECT run_id, trade_index, equity, drawdown
		FROM equity_curve
		WHERE run_id = ?
		ORDER BY trade_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query equity curve: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p          domain.EquityPoint
			tradeIndex uint32
		)
		if err := rows.Scan(&p.RunID, &tradeIndex, &p.Equity, &p.Drawdown); err != nil {
			return nil, fmt.Errorf("scan equity point: %w", err)
		}
		p.TradeIndex = int(tradeIndex)
		result = append(result, &p)
	}
	return result, rows.Err()
}
