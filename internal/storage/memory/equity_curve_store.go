package memory

import (
	"context"
	"sort"
	"sync"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.EquityPoint // keyed by run_id
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string][]*domain.EquityPoint),
	}
}

var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds a run's curve points.
func (s *EquityCurveStore) InsertBulk(_ context.Context, points []*domain.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		copy := *p
		s.data[p.RunID] = append(s.data[p.RunID], &copy)
	}
	return nil
}

// GetByRunID retrieves a run's curve ordered by trade index ASC.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID string) ([]*domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EquityPoint
	for _, p := range s.data[runID] {
		copy := *p
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TradeIndex < result[j].TradeIndex
	})
	return result, nil
}
