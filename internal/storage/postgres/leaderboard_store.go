package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// LeaderboardStore implements storage.LeaderboardStore using PostgreSQL.
// Metrics and params serialize to JSONB so the schema survives metric
// additions without migrations.
type LeaderboardStore struct {
	pool *Pool
}

// NewLeaderboardStore creates a new LeaderboardStore.
func NewLeaderboardStore(pool *Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// Upsert inserts or replaces the entry for entry.EAName.
func (s *LeaderboardStore) Upsert(ctx context.Context, entry *domain.RankedStrategy) error {
	if entry == nil || entry.EAName == "" {
		return storage.ErrInvalidInput
	}

	metrics, err := json.Marshal(entry.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	params, err := json.Marshal(entry.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	query := `
		INSERT INTO leaderboard (ea_name, score, rank, metrics, params, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ea_name) DO UPDATE SET
			score = EXCLUDED.score,
			rank = EXCLUDED.rank,
			metrics = EXCLUDED.metrics,
			params = EXCLUDED.params,
			created_at = EXCLUDED.created_at
	`
	if _, err := s.pool.Exec(ctx, query,
		entry.EAName, entry.Score, entry.Rank, metrics, params, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

// GetByEA retrieves one entry. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) GetByEA(ctx context.Context, eaName string) (*domain.RankedStrategy, error) {
	query := `SELECT ea_name, score, rank, metrics, params, created_at FROM leaderboard WHERE ea_name = $1`

	entry, err := scanEntry(s.pool.QueryRow(ctx, query, eaName))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get leaderboard entry: %w", err)
	}
	return entry, nil
}

// GetAll retrieves all entries ordered by score descending.
func (s *LeaderboardStore) GetAll(ctx context.Context) ([]*domain.RankedStrategy, error) {
	query := `SELECT ea_name, score, rank, metrics, params, created_at FROM leaderboard ORDER BY score DESC, ea_name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var result []*domain.RankedStrategy
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// Delete removes an entry. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) Delete(ctx context.Context, eaName string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leaderboard WHERE ea_name = $1`, eaName)
	if err != nil {
		return fmt.Errorf("delete leaderboard entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanEntry(row rowScanner) (*domain.RankedStrategy, error) {
	var (
		entry   domain.RankedStrategy
		metrics []byte
		params  []byte
	)
	if err := row.Scan(&entry.EAName, &entry.Score, &entry.Rank, &metrics, &params, &entry.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metrics, &entry.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal(params, &entry.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return &entry, nil
}
