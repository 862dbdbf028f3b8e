// Package memory provides in-memory store implementations. They back unit
// tests and the single-process CLI tools where a database is overkill.
package memory

import (
	"context"
	"sort"
	"sync"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// ValidationRunStore is an in-memory implementation of storage.ValidationRunStore.
type ValidationRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ValidationRun // keyed by run_id
}

// NewValidationRunStore creates a new in-memory run store.
func NewValidationRunStore() *ValidationRunStore {
	return &ValidationRunStore{
		data: make(map[string]*domain.ValidationRun),
	}
}

var _ storage.ValidationRunStore = (*ValidationRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ValidationRunStore) Insert(_ context.Context, run *domain.ValidationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *run
	s.data[run.RunID] = &copy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ValidationRunStore) GetByID(_ context.Context, runID string) (*domain.ValidationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *run
	return &copy, nil
}

// GetByEA retrieves all runs for an EA, newest first.
func (s *ValidationRunStore) GetByEA(_ context.Context, eaName string) ([]*domain.ValidationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ValidationRun
	for _, run := range s.data {
		if run.EAName == eaName {
			copy := *run
			result = append(result, &copy)
		}
	}
	sortRunsNewestFirst(result)
	return result, nil
}

// List retrieves the most recent runs, newest first. limit <= 0 means all.
func (s *ValidationRunStore) List(_ context.Context, limit int) ([]*domain.ValidationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ValidationRun, 0, len(s.data))
	for _, run := range s.data {
		copy := *run
		result = append(result, &copy)
	}
	sortRunsNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortRunsNewestFirst(runs []*domain.ValidationRun) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].RunID < runs[j].RunID
	})
}
