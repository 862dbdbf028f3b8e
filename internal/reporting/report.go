package reporting

import (
	"time"

	"ea-stress-lab/internal/domain"
)

// Report is the rendered summary of one validation run.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// The run under report
	Run domain.ValidationRun

	// Headline backtest metrics, when the caller had a parsed report at
	// hand. Nil when the run was rebuilt from storage alone.
	Metrics *domain.BacktestMetrics

	// Threshold checks
	ThresholdChecks []CheckRow
	AllChecksPassed bool

	// Reconstructed trades in close order
	Trades []domain.Trade

	// Current leaderboard, sorted by score descending
	Leaderboard []LeaderboardRow
}

// CheckRow is one pass criterion applied to the run.
type CheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// LeaderboardRow is one strategy on the leaderboard.
type LeaderboardRow struct {
	Rank         int
	EAName       string
	Score        float64
	ProfitFactor float64
	WinRate      float64
	NetProfit    float64
	TotalTrades  int
}
