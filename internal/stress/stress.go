// Package stress re-scores a reconstructed trade list under degraded
// execution assumptions: wider spreads, adverse slippage, and inflated
// commission or swap. It never re-runs the tester, so a full suite is
// deterministic and takes milliseconds.
package stress

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/stats"
)

// ErrNoTrades is returned when a suite is run against an empty trade list.
var ErrNoTrades = errors.New("stress: no trades")

// Soft profit-factor gate applied alongside the configured minimum.
const softProfitFactor = 1.3

// Per-lot pip value assumed when it cannot be inferred from the trades.
const fallbackPipValuePerLot = 10.0

// Scenario is one execution-cost stress to apply. Zero multipliers are
// treated as 1.0 so literal scenarios only name the knobs they turn.
type Scenario struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	SpreadMult     float64 `json:"spread_mult"`
	SlippagePips   float64 `json:"slippage_pips"` // per side, entry and exit
	CommissionMult float64 `json:"commission_mult"`
	SwapMult       float64 `json:"swap_mult"`
}

// Costs breaks down the extra execution cost a scenario charged.
type Costs struct {
	ExtraSpread     float64 `json:"extra_spread_cost"`
	ExtraSlippage   float64 `json:"extra_slippage_cost"`
	ExtraCommission float64 `json:"extra_commission_cost"`
	ExtraSwap       float64 `json:"extra_swap_cost"`
}

// Delta is the change in headline metrics relative to the baseline run.
type Delta struct {
	Profit         float64 `json:"profit"`
	ROIPct         float64 `json:"roi_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}

// ScenarioResult is the re-scored outcome of one scenario.
type ScenarioResult struct {
	Scenario Scenario               `json:"scenario"`
	Metrics  domain.BacktestMetrics `json:"metrics"`
	Costs    Costs                  `json:"costs"`
	Delta    Delta                  `json:"delta"`
	PassSoft bool                   `json:"pf_ge_soft"` // PF >= 1.3
	PassMin  bool                   `json:"pf_ge_min"`  // PF >= configured minimum
}

// Result is the full suite outcome. Baseline is scored from the unmodified
// trade list; Scenarios hold the stressed runs in configuration order.
type Result struct {
	Symbol             string           `json:"symbol"`
	BaselineSpreadPips float64          `json:"baseline_spread_pips"`
	MinProfitFactor    float64          `json:"min_profit_factor"`
	Baseline           ScenarioResult   `json:"baseline"`
	Scenarios          []ScenarioResult `json:"scenarios"`
	ScenariosPassing   int              `json:"scenarios_passing"` // stressed runs with PF >= minimum
}

// Config configures a Suite. Zero values fall back to defaults; a nil
// Scenarios slice runs DefaultScenarios.
type Config struct {
	BaselineSpreadPips float64 // 0 means infer from the symbol
	MinProfitFactor    float64
	PipValuePerLot     map[string]float64 // nil means infer from the trades
	Scenarios          []Scenario
}

// Suite applies a set of stress scenarios to one trade list.
type Suite struct {
	cfg Config
}

// New builds a Suite, filling defaulted config fields.
func New(cfg Config) *Suite {
	if cfg.MinProfitFactor <= 0 {
		cfg.MinProfitFactor = 1.5
	}
	return &Suite{cfg: cfg}
}

// DefaultScenarios is the standard ladder: spread x1.5/x2, slippage
// 0.10/0.20 pips per side, commission x1.5/x2, and two combos.
func DefaultScenarios(baselineSpreadPips float64) []Scenario {
	return []Scenario{
		{ID: "spread_1_5x", Label: fmt.Sprintf("Spread x1.5 (baseline %.2f pips)", baselineSpreadPips), SpreadMult: 1.5},
		{ID: "spread_2x", Label: fmt.Sprintf("Spread x2.0 (baseline %.2f pips)", baselineSpreadPips), SpreadMult: 2.0},
		{ID: "slip_0_10", Label: "Slippage 0.10 pips/side", SlippagePips: 0.10},
		{ID: "slip_0_20", Label: "Slippage 0.20 pips/side", SlippagePips: 0.20},
		{ID: "comm_1_5x", Label: "Commission x1.5", CommissionMult: 1.5},
		{ID: "comm_2x", Label: "Commission x2.0", CommissionMult: 2.0},
		{
			ID:             "combo_mid",
			Label:          "Combo: Spread x1.5 + Slippage 0.10 + Comm x1.5",
			SpreadMult:     1.5,
			SlippagePips:   0.10,
			CommissionMult: 1.5,
		},
		{
			ID:             "combo_worst",
			Label:          "Combo: Spread x2.0 + Slippage 0.20 + Comm x2.0",
			SpreadMult:     2.0,
			SlippagePips:   0.20,
			CommissionMult: 2.0,
		},
	}
}

// PipSize returns the pip increment for a symbol: 0.01 for JPY quotes,
// 0.0001 otherwise.
func PipSize(symbol string) float64 {
	if strings.HasSuffix(strings.ToUpper(symbol), "JPY") {
		return 0.01
	}
	return 0.0001
}

// defaultSpreadPips is the assumed baseline spread when none is configured.
func defaultSpreadPips(symbol string) float64 {
	if strings.HasSuffix(strings.ToUpper(symbol), "JPY") {
		return 2.0
	}
	return 1.0
}

// tradePips returns the signed price move in pips, or false when the trade
// is missing the prices or volume needed to compute it.
func tradePips(t domain.Trade) (float64, bool) {
	if t.EntryPrice == 0 || t.ExitPrice == 0 || t.Volume == 0 {
		return 0, false
	}
	ps := PipSize(t.Symbol)
	direction := 1.0
	if !strings.EqualFold(t.Direction, "buy") {
		direction = -1.0
	}
	return ((t.ExitPrice - t.EntryPrice) / ps) * direction, true
}

// InferPipValuePerLot estimates the per-lot pip value for each symbol from
// gross profit and price move: pip_value ~ profit / (pips * volume). The
// per-symbol median smooths partial fills and rounding noise.
func InferPipValuePerLot(trades []domain.Trade) map[string]float64 {
	samples := make(map[string][]float64)
	for _, t := range trades {
		pips, ok := tradePips(t)
		if !ok || (pips > -1e-9 && pips < 1e-9) {
			continue
		}
		pv := t.Profit / (pips * t.Volume)
		if pv < 0 {
			pv = -pv
		}
		samples[t.Symbol] = append(samples[t.Symbol], pv)
	}

	out := make(map[string]float64, len(samples))
	for sym, vals := range samples {
		out[sym] = stats.Median(vals)
	}
	return out
}

// Run scores the baseline and every configured scenario.
func (s *Suite) Run(trades []domain.Trade, initialBalance float64) (*Result, error) {
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	symbol := trades[0].Symbol
	spread := s.cfg.BaselineSpreadPips
	if spread <= 0 {
		spread = defaultSpreadPips(symbol)
	}
	pipValues := s.cfg.PipValuePerLot
	if pipValues == nil {
		pipValues = InferPipValuePerLot(trades)
	}
	scenarios := s.cfg.Scenarios
	if scenarios == nil {
		scenarios = DefaultScenarios(spread)
	}

	result := &Result{
		Symbol:             symbol,
		BaselineSpreadPips: spread,
		MinProfitFactor:    s.cfg.MinProfitFactor,
	}

	baseline := Scenario{ID: "baseline", Label: "Baseline (no extra stress)"}
	result.Baseline = s.score(trades, initialBalance, spread, pipValues, baseline)

	for _, sc := range scenarios {
		sr := s.score(trades, initialBalance, spread, pipValues, sc)
		sr.Delta = Delta{
			Profit:         sr.Metrics.TotalNetProfit - result.Baseline.Metrics.TotalNetProfit,
			ROIPct:         sr.Metrics.ROIPct - result.Baseline.Metrics.ROIPct,
			ProfitFactor:   sr.Metrics.ProfitFactor - result.Baseline.Metrics.ProfitFactor,
			MaxDrawdownPct: sr.Metrics.MaxDrawdownPct - result.Baseline.Metrics.MaxDrawdownPct,
		}
		if sr.PassMin {
			result.ScenariosPassing++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}
	return result, nil
}

// score re-prices every trade under one scenario and recomputes the
// headline metrics. Spread widening and slippage are modeled as a pure
// cost, always adverse; commission and swap multipliers scale whatever the
// trade already paid.
func (s *Suite) score(trades []domain.Trade, initialBalance, baselineSpreadPips float64, pipValues map[string]float64, sc Scenario) ScenarioResult {
	spreadMult := orOne(sc.SpreadMult)
	commissionMult := orOne(sc.CommissionMult)
	swapMult := orOne(sc.SwapMult)

	extraSpreadPips := (spreadMult - 1.0) * baselineSpreadPips
	if extraSpreadPips < 0 {
		extraSpreadPips = 0
	}
	slipRoundtripPips := sc.SlippagePips * 2.0
	if slipRoundtripPips < 0 {
		slipRoundtripPips = 0
	}

	res := ScenarioResult{Scenario: sc}
	m := &res.Metrics
	m.InitialDeposit = initialBalance
	m.TotalTrades = len(trades)

	type pnlPoint struct {
		closeTime string
		net       float64
	}
	series := make([]pnlPoint, 0, len(trades))

	for _, t := range trades {
		pv := pipValues[t.Symbol]
		if pv <= 0 {
			pv = fallbackPipValuePerLot
		}

		spreadCost := extraSpreadPips * pv * t.Volume
		slippageCost := slipRoundtripPips * pv * t.Volume
		commissionDelta := t.Commission * (commissionMult - 1.0)
		swapDelta := t.Swap * (swapMult - 1.0)

		net := t.NetProfit - spreadCost - slippageCost + commissionDelta + swapDelta

		m.TotalNetProfit += net
		switch {
		case net > 0:
			m.GrossProfit += net
			m.WinningTrades++
		case net < 0:
			m.GrossLoss += net
			m.LosingTrades++
		}

		res.Costs.ExtraSpread += spreadCost
		res.Costs.ExtraSlippage += slippageCost
		if commissionDelta < 0 {
			res.Costs.ExtraCommission += -commissionDelta
		}
		if swapDelta < 0 {
			res.Costs.ExtraSwap += -swapDelta
		}

		series = append(series, pnlPoint{closeTime: t.CloseTime, net: net})
	}

	switch {
	case m.GrossLoss < 0:
		m.ProfitFactor = m.GrossProfit / -m.GrossLoss
	default:
		// No losing trades; report gross profit so the value stays
		// finite and JSON-encodable.
		m.ProfitFactor = m.GrossProfit
	}
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100.0
	m.ExpectedPayoff = m.TotalNetProfit / float64(m.TotalTrades)
	if initialBalance != 0 {
		m.ROIPct = m.TotalNetProfit / initialBalance * 100.0
	}

	// Deal timestamps sort lexicographically, so a stable string sort
	// restores close order for the drawdown walk.
	sort.SliceStable(series, func(i, j int) bool { return series[i].closeTime < series[j].closeTime })

	balance := initialBalance
	peak := balance
	for _, p := range series {
		balance += p.net
		if balance > peak {
			peak = balance
		}
		dd := peak - balance
		if dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
		}
		if peak > 0 {
			if ddPct := dd / peak * 100.0; ddPct > m.MaxDrawdownPct {
				m.MaxDrawdownPct = ddPct
			}
		}
	}
	m.FinalBalance = balance

	res.PassSoft = m.ProfitFactor >= softProfitFactor
	res.PassMin = m.ProfitFactor >= s.cfg.MinProfitFactor
	return res
}

func orOne(mult float64) float64 {
	if mult == 0 {
		return 1.0
	}
	return mult
}
