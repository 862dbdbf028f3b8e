package reporting

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the report as a markdown document.
func RenderMarkdown(r *Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Validation Report: %s\n\n", r.Run.EAName))
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	writeRunSection(&b, r)
	writeMonteCarloSection(&b, r)
	if r.Run.TotalPasses > 0 {
		writeOptimizationSection(&b, r)
	}
	writeChecksSection(&b, r)
	if len(r.Leaderboard) > 0 {
		writeLeaderboardSection(&b, r)
	}

	return b.String()
}

func writeRunSection(b *strings.Builder, r *Report) {
	b.WriteString("## Run\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	b.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.Run.RunID))
	b.WriteString(fmt.Sprintf("| Symbol | %s %s |\n", r.Run.Symbol, r.Run.Timeframe))
	if r.Run.FromDate != "" || r.Run.ToDate != "" {
		b.WriteString(fmt.Sprintf("| Period | %s to %s |\n", r.Run.FromDate, r.Run.ToDate))
	}
	b.WriteString(fmt.Sprintf("| Trades | %d |\n", r.Run.TradeCount))
	b.WriteString(fmt.Sprintf("| Initial balance | %.2f |\n", r.Run.InitialBalance))
	b.WriteString(fmt.Sprintf("| Final balance | %.2f |\n", r.Run.FinalBalance))
	b.WriteString(fmt.Sprintf("| Net profit | %.2f |\n", r.Run.TotalNetProfit))
	b.WriteString(fmt.Sprintf("| Commission | %.2f |\n", r.Run.TotalCommission))
	b.WriteString(fmt.Sprintf("| Swap | %.2f |\n", r.Run.TotalSwap))
	if r.Metrics != nil {
		b.WriteString(fmt.Sprintf("| Profit factor | %.2f |\n", r.Metrics.ProfitFactor))
		b.WriteString(fmt.Sprintf("| Max drawdown | %.2f (%.1f%%) |\n", r.Metrics.MaxDrawdown, r.Metrics.MaxDrawdownPct))
		b.WriteString(fmt.Sprintf("| Win rate | %.1f%% |\n", r.Metrics.WinRate))
	}
	b.WriteString("\n")
}

func writeMonteCarloSection(b *strings.Builder, r *Report) {
	b.WriteString("## Monte Carlo\n\n")
	if r.Run.Iterations == 0 {
		b.WriteString("Not run.\n\n")
		return
	}
	verdict := "NOT ROBUST"
	if r.Run.MonteCarloRobust {
		verdict = "ROBUST"
	}
	b.WriteString(fmt.Sprintf("**Verdict: %s**\n\n", verdict))
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	b.WriteString(fmt.Sprintf("| Iterations | %d |\n", r.Run.Iterations))
	b.WriteString(fmt.Sprintf("| Median profit | %.2f |\n", r.Run.MedianProfit))
	b.WriteString(fmt.Sprintf("| Profit 5th percentile | %.2f |\n", r.Run.Profit5thPercentile))
	b.WriteString(fmt.Sprintf("| Confidence level | %.1f%% |\n", r.Run.ConfidenceLevel))
	b.WriteString(fmt.Sprintf("| Probability of ruin | %.1f%% |\n", r.Run.ProbabilityOfRuin))
	b.WriteString("\n")
}

func writeOptimizationSection(b *strings.Builder, r *Report) {
	b.WriteString("## Optimization Join\n\n")
	b.WriteString(fmt.Sprintf("%d of %d passes robust across all exports.\n\n",
		r.Run.RobustPasses, r.Run.TotalPasses))
}

func writeChecksSection(b *strings.Builder, r *Report) {
	b.WriteString("## Threshold Checks\n\n")
	b.WriteString("| Check | Threshold | Actual | Result |\n")
	b.WriteString("|-------|-----------|--------|--------|\n")
	for _, c := range r.ThresholdChecks {
		result := "FAIL"
		if c.Pass {
			result = "PASS"
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.Name, c.Threshold, c.Actual, result))
	}
	b.WriteString("\n")
	if r.AllChecksPassed {
		b.WriteString("All checks passed.\n\n")
	} else {
		b.WriteString("One or more checks failed.\n\n")
	}
}

func writeLeaderboardSection(b *strings.Builder, r *Report) {
	b.WriteString("## Leaderboard\n\n")
	b.WriteString("| Rank | EA | Score | PF | Win Rate | Net Profit | Trades |\n")
	b.WriteString("|------|----|-------|----|----------|------------|--------|\n")
	for _, row := range r.Leaderboard {
		b.WriteString(fmt.Sprintf("| %d | %s | %.2f | %.2f | %.1f%% | %.2f | %d |\n",
			row.Rank, row.EAName, row.Score, row.ProfitFactor, row.WinRate, row.NetProfit, row.TotalTrades))
	}
	b.WriteString("\n")
}
