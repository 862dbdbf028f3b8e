package mt5report

import (
	"fmt"
	"regexp"

	"ea-stress-lab/internal/domain"
)

// labeledValue matches the tester's summary layout:
// <td>Label:</td><td ...><b>value</b></td>
func labeledValue(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)` + label + `[^<]*</td>\s*<td[^>]*><b>([^<]+)</b>`)
}

var metricPatterns = map[string]*regexp.Regexp{
	"total_net_profit": labeledValue(`Total Net Profit`),
	"gross_profit":     labeledValue(`Gross Profit`),
	"gross_loss":       labeledValue(`Gross Loss`),
	"profit_factor":    labeledValue(`Profit Factor`),
	"max_drawdown":     labeledValue(`(?:Balance|Equity) Drawdown Maximal`),
	"total_trades":     labeledValue(`Total Trades`),
	"expected_payoff":  labeledValue(`Expected Payoff`),
	"sharpe_ratio":     labeledValue(`Sharpe Ratio`),
	"recovery_factor":  labeledValue(`Recovery Factor`),
	"initial_deposit":  labeledValue(`Initial [Dd]eposit`),
	"winning_trades":   labeledValue(`Profit Trades`),
	"losing_trades":    labeledValue(`Loss Trades`),
	"history_quality":  labeledValue(`History Quality`),
	"bars":             labeledValue(`Bars`),
	"ticks":            labeledValue(`Ticks`),
}

var drawdownRelativePattern = regexp.MustCompile(
	`(?is)Balance Drawdown Relative[^<]*</td>\s*<td[^>]*><b>(\d+\.?\d*)%`)

// ParseMetrics extracts the labeled summary fields from report content and
// fills in the derived figures (win rate, recovery factor, ROI).
func ParseMetrics(content string) *domain.BacktestMetrics {
	m := &domain.BacktestMetrics{InitialDeposit: 10000}

	for field, pattern := range metricPatterns {
		match := pattern.FindStringSubmatch(content)
		if match == nil {
			continue
		}
		value := parseFloat(match[1])

		switch field {
		case "total_net_profit":
			m.TotalNetProfit = value
		case "gross_profit":
			m.GrossProfit = value
		case "gross_loss":
			m.GrossLoss = value
		case "profit_factor":
			m.ProfitFactor = value
		case "max_drawdown":
			m.MaxDrawdown = value
		case "total_trades":
			m.TotalTrades = int(value)
		case "expected_payoff":
			m.ExpectedPayoff = value
		case "sharpe_ratio":
			m.SharpeRatio = value
		case "recovery_factor":
			m.RecoveryFactor = value
		case "initial_deposit":
			m.InitialDeposit = value
		case "winning_trades":
			m.WinningTrades = int(value)
		case "losing_trades":
			m.LosingTrades = int(value)
		case "history_quality":
			m.HistoryQuality = value
		case "bars":
			m.Bars = int(value)
		case "ticks":
			m.Ticks = int(value)
		}
	}

	if match := drawdownRelativePattern.FindStringSubmatch(content); match != nil {
		m.MaxDrawdownPct = parseFloat(match[1])
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.MaxDrawdown != 0 {
		m.RecoveryFactor = abs(m.TotalNetProfit / m.MaxDrawdown)
	}
	if m.InitialDeposit > 0 {
		m.ROIPct = m.TotalNetProfit / m.InitialDeposit * 100
		m.FinalBalance = m.InitialDeposit + m.TotalNetProfit
	}

	return m
}

// ParseMetricsFile reads and parses a report's summary in one step.
func ParseMetricsFile(path string) (*domain.BacktestMetrics, error) {
	content, err := ReadReport(path)
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}
	return ParseMetrics(content), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
