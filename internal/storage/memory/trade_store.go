package memory

import (
	"context"
	"sync"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Trade // keyed by run_id, in close order
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string][]domain.Trade),
	}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a run's trades atomically in close order. Returns
// ErrDuplicateKey if the run already has trades stored.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := make([]domain.Trade, len(trades))
	for i, t := range trades {
		copy[i] = t
	}
	s.data[runID] = copy
	return nil
}

// GetByRunID retrieves a run's trades in close order. Returns ErrNotFound
// if the run has no trades stored.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	result := make([]domain.Trade, len(trades))
	for i, t := range trades {
		result[i] = t
	}
	return result, nil
}
