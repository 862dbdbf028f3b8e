package memory

import (
	"context"
	"sort"
	"sync"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// LeaderboardStore is an in-memory implementation of storage.LeaderboardStore.
type LeaderboardStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RankedStrategy // keyed by ea_name
}

// NewLeaderboardStore creates a new in-memory leaderboard store.
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		data: make(map[string]*domain.RankedStrategy),
	}
}

var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// Upsert inserts or replaces the entry for entry.EAName.
func (s *LeaderboardStore) Upsert(_ context.Context, entry *domain.RankedStrategy) error {
	if entry == nil || entry.EAName == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *entry
	copy.Params = cloneParams(entry.Params)
	s.data[entry.EAName] = &copy
	return nil
}

// GetByEA retrieves one entry. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) GetByEA(_ context.Context, eaName string) (*domain.RankedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data[eaName]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *entry
	copy.Params = cloneParams(entry.Params)
	return &copy, nil
}

// GetAll retrieves all entries ordered by score descending.
func (s *LeaderboardStore) GetAll(_ context.Context) ([]*domain.RankedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RankedStrategy, 0, len(s.data))
	for _, entry := range s.data {
		copy := *entry
		copy.Params = cloneParams(entry.Params)
		result = append(result, &copy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].EAName < result[j].EAName
	})
	return result, nil
}

// Delete removes an entry. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) Delete(_ context.Context, eaName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[eaName]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, eaName)
	return nil
}

func cloneParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
