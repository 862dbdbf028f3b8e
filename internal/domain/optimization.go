package domain

// OptimizationPass is one parameter combination tried by the optimizer,
// keyed by pass number within a single export table. Parameter columns vary
// per strategy, so they are carried as a name→value mapping.
type OptimizationPass struct {
	PassNum        int     `json:"pass"`
	Result         float64 `json:"result"`
	Profit         float64 `json:"profit"`
	ExpectedPayoff float64 `json:"expected_payoff"`
	ProfitFactor   float64 `json:"profit_factor"`
	RecoveryFactor float64 `json:"recovery_factor"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	Custom         float64 `json:"custom"`
	EquityDDPct    float64 `json:"equity_dd_pct"`
	Trades         int     `json:"trades"`

	// BackResult is only present in forward exports, where the optimizer
	// echoes the in-sample result next to the forward one.
	BackResult float64 `json:"back_result,omitempty"`

	Parameters map[string]any `json:"parameters,omitempty"`
}

// WindowMetrics is the per-window metrics bundle of a joined pass.
type WindowMetrics struct {
	Profit       float64 `json:"profit"`
	ProfitFactor float64 `json:"profit_factor"`
	MaxDDPct     float64 `json:"max_dd_pct"`
	Trades       int     `json:"trades"`
}

// RobustPassResult is a pass joined across the in-sample and forward
// windows. Robust means strictly profitable in BOTH windows.
type RobustPassResult struct {
	PassNum     int            `json:"pass"`
	InSample    WindowMetrics  `json:"in_sample"`
	Forward     WindowMetrics  `json:"forward"`
	TotalProfit float64        `json:"total_profit"` // in-sample + forward
	IsRobust    bool           `json:"is_robust"`
	Parameters  map[string]any `json:"parameters"`
}
