package domain

// BacktestMetrics is the labeled-field summary the tester reports for one
// evaluation window. Derived fields (WinRate, RecoveryFactor, ROIPct) are
// filled in by the report parser when their inputs are present.
type BacktestMetrics struct {
	// Profitability
	TotalNetProfit float64 `json:"total_net_profit"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	ProfitFactor   float64 `json:"profit_factor"`

	// Drawdown
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	// Trades
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	// Simulation data quality / volume
	HistoryQuality float64 `json:"history_quality"`
	Bars           int     `json:"bars"`
	Ticks          int     `json:"ticks"`

	// Quality
	ExpectedPayoff float64 `json:"expected_payoff"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	RecoveryFactor float64 `json:"recovery_factor"`

	// Account
	InitialDeposit float64 `json:"initial_deposit"`
	FinalBalance   float64 `json:"final_balance"`
	ROIPct         float64 `json:"roi_pct"`
}
