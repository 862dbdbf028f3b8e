package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/storage"
)

// Generator produces validation reports from stored data.
type Generator struct {
	runStore         storage.ValidationRunStore
	tradeStore       storage.TradeStore
	leaderboardStore storage.LeaderboardStore
	thresholds       config.Thresholds
	now              func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.ValidationRunStore,
	tradeStore storage.TradeStore,
	leaderboardStore storage.LeaderboardStore,
	thresholds config.Thresholds,
) *Generator {
	return &Generator{
		runStore:         runStore,
		tradeStore:       tradeStore,
		leaderboardStore: leaderboardStore,
		thresholds:       thresholds,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one run. metrics may be nil;
// the metric-based threshold checks are skipped then.
func (g *Generator) Generate(ctx context.Context, runID string, metrics *domain.BacktestMetrics) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	trades, err := g.tradeStore.GetByRunID(ctx, runID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load trades for %s: %w", runID, err)
	}

	board, err := g.leaderboardStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	checks := g.thresholdChecks(run, metrics)
	allPassed := true
	for _, c := range checks {
		if !c.Pass {
			allPassed = false
			break
		}
	}

	return &Report{
		GeneratedAt:     g.now(),
		Run:             *run,
		Metrics:         metrics,
		ThresholdChecks: checks,
		AllChecksPassed: allPassed,
		Trades:          trades,
		Leaderboard:     leaderboardRows(board),
	}, nil
}

// thresholdChecks applies the configured pass criteria. Checks whose input
// is unavailable are omitted rather than failed.
func (g *Generator) thresholdChecks(run *domain.ValidationRun, metrics *domain.BacktestMetrics) []CheckRow {
	var checks []CheckRow

	checks = append(checks, CheckRow{
		Name:      "Trade count",
		Threshold: fmt.Sprintf(">= %d", g.thresholds.MinTrades),
		Actual:    fmt.Sprintf("%d", run.TradeCount),
		Pass:      run.TradeCount >= g.thresholds.MinTrades,
	})

	if metrics != nil {
		checks = append(checks,
			CheckRow{
				Name:      "Profit factor",
				Threshold: fmt.Sprintf(">= %.2f", g.thresholds.MinProfitFactor),
				Actual:    fmt.Sprintf("%.2f", metrics.ProfitFactor),
				Pass:      metrics.ProfitFactor >= g.thresholds.MinProfitFactor,
			},
			CheckRow{
				Name:      "Max drawdown",
				Threshold: fmt.Sprintf("<= %.1f%%", g.thresholds.MaxDrawdownPct),
				Actual:    fmt.Sprintf("%.1f%%", metrics.MaxDrawdownPct),
				Pass:      metrics.MaxDrawdownPct <= g.thresholds.MaxDrawdownPct,
			},
			CheckRow{
				Name:      "Win rate",
				Threshold: fmt.Sprintf(">= %.1f%%", g.thresholds.MinWinRate),
				Actual:    fmt.Sprintf("%.1f%%", metrics.WinRate),
				Pass:      metrics.WinRate >= g.thresholds.MinWinRate,
			},
		)
	}

	if run.Iterations > 0 {
		checks = append(checks, CheckRow{
			Name:      "Monte Carlo",
			Threshold: "robust",
			Actual:    fmt.Sprintf("confidence %.1f%%, ruin %.1f%%", run.ConfidenceLevel, run.ProbabilityOfRuin),
			Pass:      run.MonteCarloRobust,
		})
	}

	return checks
}

func leaderboardRows(entries []*domain.RankedStrategy) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LeaderboardRow{
			Rank:         e.Rank,
			EAName:       e.EAName,
			Score:        e.Score,
			ProfitFactor: e.Metrics.ProfitFactor,
			WinRate:      e.Metrics.WinRate,
			NetProfit:    e.Metrics.TotalNetProfit,
			TotalTrades:  e.Metrics.TotalTrades,
		})
	}
	return rows
}
