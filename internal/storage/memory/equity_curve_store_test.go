package memory

import (
	"context"
	"errors"
	"testing"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

func TestEquityCurveStore_InsertBulkAndGet(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []*domain.EquityPoint{
		{RunID: "run1", TradeIndex: 1, Equity: 10050, Drawdown: 50},
		{RunID: "run1", TradeIndex: 0, Equity: 10100, Drawdown: 0},
		{RunID: "run2", TradeIndex: 0, Equity: 9900, Drawdown: 100},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	curve, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(curve) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(curve))
	}
	// Ordered by trade index regardless of insert order.
	if curve[0].TradeIndex != 0 || curve[1].TradeIndex != 1 {
		t.Errorf("curve out of order: %d, %d", curve[0].TradeIndex, curve[1].TradeIndex)
	}
	if curve[0].Equity != 10100 {
		t.Errorf("Equity = %v, want 10100", curve[0].Equity)
	}
}

func TestEquityCurveStore_EmptyBatch(t *testing.T) {
	store := NewEquityCurveStore()
	if err := store.InsertBulk(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestEquityCurveStore_InvalidPoint(t *testing.T) {
	store := NewEquityCurveStore()
	err := store.InsertBulk(context.Background(), []*domain.EquityPoint{
		{RunID: "run1", TradeIndex: 0, Equity: 10000},
		{RunID: "", TradeIndex: 1},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	// Validation happens before any write.
	curve, _ := store.GetByRunID(context.Background(), "run1")
	if len(curve) != 0 {
		t.Errorf("failed batch must not be partially applied, got %d points", len(curve))
	}
}

func TestEquityCurveStore_UnknownRun(t *testing.T) {
	store := NewEquityCurveStore()
	curve, err := store.GetByRunID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(curve) != 0 {
		t.Errorf("Expected empty curve, got %d points", len(curve))
	}
}
