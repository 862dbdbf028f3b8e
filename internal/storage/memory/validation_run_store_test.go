package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

func sampleRun(runID, eaName string, createdAt time.Time) *domain.ValidationRun {
	return &domain.ValidationRun{
		RunID:          runID,
		EAName:         eaName,
		Symbol:         "EURUSD",
		Timeframe:      "H1",
		FromDate:       "2024.01.01",
		ToDate:         "2024.12.01",
		CreatedAt:      createdAt,
		TradeCount:     120,
		InitialBalance: 10000,
		FinalBalance:   13500,
		TotalNetProfit: 3500,
	}
}

func TestValidationRunStore_InsertAndGet(t *testing.T) {
	store := NewValidationRunStore()
	ctx := context.Background()

	run := sampleRun("run1", "TrendEA", time.Now())
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.EAName != "TrendEA" || got.TotalNetProfit != 3500 {
		t.Errorf("unexpected run: %+v", got)
	}

	// Mutating the returned copy must not affect the store.
	got.TotalNetProfit = 0
	again, _ := store.GetByID(ctx, "run1")
	if again.TotalNetProfit != 3500 {
		t.Error("store returned a shared pointer")
	}
}

func TestValidationRunStore_DuplicateKey(t *testing.T) {
	store := NewValidationRunStore()
	ctx := context.Background()

	run := sampleRun("run1", "TrendEA", time.Now())
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestValidationRunStore_GetByIDNotFound(t *testing.T) {
	store := NewValidationRunStore()
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestValidationRunStore_InvalidInput(t *testing.T) {
	store := NewValidationRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil run, got %v", err)
	}
	if err := store.Insert(ctx, &domain.ValidationRun{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty run_id, got %v", err)
	}
}

func TestValidationRunStore_GetByEANewestFirst(t *testing.T) {
	store := NewValidationRunStore()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Insert(ctx, sampleRun("run1", "TrendEA", base))
	store.Insert(ctx, sampleRun("run2", "TrendEA", base.Add(time.Hour)))
	store.Insert(ctx, sampleRun("run3", "OtherEA", base.Add(2*time.Hour)))

	runs, err := store.GetByEA(ctx, "TrendEA")
	if err != nil {
		t.Fatalf("GetByEA failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run2" || runs[1].RunID != "run1" {
		t.Errorf("runs out of order: %s, %s", runs[0].RunID, runs[1].RunID)
	}
}

func TestValidationRunStore_ListLimit(t *testing.T) {
	store := NewValidationRunStore()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run1", "run2", "run3"} {
		store.Insert(ctx, sampleRun(id, "TrendEA", base.Add(time.Duration(i)*time.Hour)))
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run3" {
		t.Errorf("Expected newest run first, got %s", runs[0].RunID)
	}

	all, _ := store.List(ctx, 0)
	if len(all) != 3 {
		t.Errorf("List(0) should return all runs, got %d", len(all))
	}
}
