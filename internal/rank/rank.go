// Package rank maintains the strategy leaderboard: a composite score per
// EA, recomputed and re-ranked whenever a validation run completes.
package rank

import (
	"context"
	"fmt"
	"math"
	"time"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// Caps keep single outlier metrics from dominating the composite score.
const (
	profitFactorCap   = 5.0
	recoveryFactorCap = 10.0
	sharpeRatioCap    = 3.0
	tradeCountCap     = 100
)

// Ranker scores strategies and keeps the leaderboard ordered.
type Ranker struct {
	store   storage.LeaderboardStore
	weights config.Scoring
	clock   func() time.Time
}

// NewRanker creates a Ranker. A nil clock uses time.Now.
func NewRanker(store storage.LeaderboardStore, weights config.Scoring, clock func() time.Time) *Ranker {
	if clock == nil {
		clock = time.Now
	}
	return &Ranker{store: store, weights: weights, clock: clock}
}

// Score computes the composite score for one strategy. Higher is better;
// the drawdown weight is negative so deep drawdowns drag the score down.
// mcConfidence is the Monte Carlo confidence level in percent.
func (r *Ranker) Score(m domain.BacktestMetrics, mcConfidence float64) float64 {
	score := 0.0

	score += math.Min(m.ProfitFactor, profitFactorCap) * r.weights.ProfitFactor
	score += m.WinRate * r.weights.WinRate / 100
	score += m.MaxDrawdownPct * r.weights.MaxDrawdownPct
	score += math.Min(m.RecoveryFactor, recoveryFactorCap) * r.weights.RecoveryFactor
	score += math.Min(float64(m.TotalTrades), tradeCountCap) * r.weights.TotalTrades
	score += math.Min(m.SharpeRatio, sharpeRatioCap) * r.weights.SharpeRatio
	score += mcConfidence * r.weights.MonteCarloConfidence / 100

	return math.Round(score*100) / 100
}

// AddResult scores a strategy, stores its leaderboard entry, and re-ranks
// the whole board. Adding the same EA again replaces its previous entry.
func (r *Ranker) AddResult(ctx context.Context, eaName string, m domain.BacktestMetrics, mcConfidence float64, params map[string]any) (*domain.RankedStrategy, error) {
	entry := &domain.RankedStrategy{
		EAName:    eaName,
		Score:     r.Score(m, mcConfidence),
		Metrics:   m,
		Params:    params,
		CreatedAt: r.clock(),
	}
	if err := r.store.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("rank: store entry: %w", err)
	}

	ranked, err := r.rerank(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range ranked {
		if e.EAName == eaName {
			return e, nil
		}
	}
	return nil, fmt.Errorf("rank: entry %s missing after rerank", eaName)
}

// Leaderboard returns all entries ordered by score descending.
func (r *Ranker) Leaderboard(ctx context.Context) ([]*domain.RankedStrategy, error) {
	return r.store.GetAll(ctx)
}

// rerank rewrites rank numbers across the whole board. GetAll already
// orders by score descending.
func (r *Ranker) rerank(ctx context.Context) ([]*domain.RankedStrategy, error) {
	entries, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("rank: load leaderboard: %w", err)
	}
	for i, e := range entries {
		if e.Rank == i+1 {
			continue
		}
		e.Rank = i + 1
		if err := r.store.Upsert(ctx, e); err != nil {
			return nil, fmt.Errorf("rank: update rank for %s: %w", e.EAName, err)
		}
	}
	return entries, nil
}
