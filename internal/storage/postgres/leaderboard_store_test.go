package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

func sampleEntry(eaName string, score float64) *domain.RankedStrategy {
	return &domain.RankedStrategy{
		EAName: eaName,
		Score:  score,
		Rank:   1,
		Metrics: domain.BacktestMetrics{
			TotalNetProfit: 2500,
			ProfitFactor:   1.8,
			WinRate:        58.3,
			TotalTrades:    120,
		},
		Params:    map[string]any{"StopLoss": float64(50), "Lots": 0.1},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestLeaderboardStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLeaderboardStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, sampleEntry("TrendEA", 42.5)))

	got, err := store.GetByEA(ctx, "TrendEA")
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.Score)
	assert.Equal(t, 1.8, got.Metrics.ProfitFactor)
	assert.Equal(t, float64(50), got.Params["StopLoss"], "params round-trip through JSONB as float64")

	// Upsert replaces the existing entry.
	updated := sampleEntry("TrendEA", 55)
	updated.Rank = 2
	require.NoError(t, store.Upsert(ctx, updated))

	got, err = store.GetByEA(ctx, "TrendEA")
	require.NoError(t, err)
	assert.Equal(t, 55.0, got.Score)
	assert.Equal(t, 2, got.Rank)
}

func TestLeaderboardStore_GetAllOrderedByScore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLeaderboardStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, sampleEntry("LowEA", 10)))
	require.NoError(t, store.Upsert(ctx, sampleEntry("HighEA", 90)))
	require.NoError(t, store.Upsert(ctx, sampleEntry("MidEA", 50)))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "HighEA", all[0].EAName)
	assert.Equal(t, "MidEA", all[1].EAName)
	assert.Equal(t, "LowEA", all[2].EAName)
}

func TestLeaderboardStore_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLeaderboardStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, sampleEntry("TrendEA", 42.5)))
	require.NoError(t, store.Delete(ctx, "TrendEA"))

	_, err := store.GetByEA(ctx, "TrendEA")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Delete(ctx, "TrendEA")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLeaderboardStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLeaderboardStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, &domain.RankedStrategy{}), storage.ErrInvalidInput)
}
