package domain

import "time"

// ValidationRun is one full validation of a strategy against a backtest
// report: reconstruction totals plus the Monte Carlo summary. Persisted so
// runs can be compared and served to downstream consumers.
type ValidationRun struct {
	RunID     string    `json:"run_id"` // deterministic hash, see idhash
	EAName    string    `json:"ea_name"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	FromDate  string    `json:"from_date"`
	ToDate    string    `json:"to_date"`
	CreatedAt time.Time `json:"created_at"`

	// Reconstruction summary
	TradeCount      int     `json:"trade_count"`
	InitialBalance  float64 `json:"initial_balance"`
	FinalBalance    float64 `json:"final_balance"`
	TotalNetProfit  float64 `json:"total_net_profit"`
	TotalCommission float64 `json:"total_commission"`
	TotalSwap       float64 `json:"total_swap"`

	// Monte Carlo summary
	Iterations          int     `json:"iterations"`
	MedianProfit        float64 `json:"median_profit"`
	Profit5thPercentile float64 `json:"profit_5th_percentile"`
	ConfidenceLevel     float64 `json:"confidence_level"`
	ProbabilityOfRuin   float64 `json:"probability_of_ruin"`
	MonteCarloRobust    bool    `json:"monte_carlo_robust"`

	// Optimization join summary (zero-valued when no exports were given)
	TotalPasses  int `json:"total_passes"`
	RobustPasses int `json:"robust_passes"`
}

// EquityPoint is one point of a run's unshuffled equity curve, indexed by
// trade order. Stored as a timeseries for drawdown inspection.
type EquityPoint struct {
	RunID      string  `json:"run_id"`
	TradeIndex int     `json:"trade_index"`
	Equity     float64 `json:"equity"`
	Drawdown   float64 `json:"drawdown"` // peak-to-current at this point
}

// RankedStrategy is a leaderboard entry: a scored metrics snapshot for one
// strategy, with the fixed parameters it was validated under.
type RankedStrategy struct {
	EAName    string          `json:"ea_name"`
	Score     float64         `json:"score"`
	Rank      int             `json:"rank"`
	Metrics   BacktestMetrics `json:"metrics"`
	Params    map[string]any  `json:"params"`
	CreatedAt time.Time       `json:"created_at"`
}
