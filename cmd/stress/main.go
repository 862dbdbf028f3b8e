// Package main re-scores a backtest report under degraded execution
// assumptions: wider spreads, slippage, and inflated commission.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/reconstruct"
	"ea-stress-lab/internal/stress"
)

func main() {
	reportPath := flag.String("report", "", "Path to the backtest report (.html/.htm)")
	configPath := flag.String("config", "", "Optional settings YAML")
	spreadPips := flag.Float64("baseline-spread", 0, "Assumed baseline spread in pips (0 = infer from symbol)")
	asJSON := flag.Bool("json", false, "Print the full result as JSON")
	flag.Parse()

	if *reportPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --report is required")
		flag.Usage()
		os.Exit(1)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	extraction, err := reconstruct.FromReport(*reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconstructing trades: %v\n", err)
		os.Exit(1)
	}

	initial := extraction.InitialBalance
	if initial == 0 {
		initial = float64(settings.Terminal.Deposit)
	}

	suite := stress.New(stress.Config{
		BaselineSpreadPips: *spreadPips,
		MinProfitFactor:    settings.Thresholds.MinProfitFactor,
	})
	result, err := suite.Run(extraction.Trades, initial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running stress suite: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Execution stress: %s, %d trades, baseline spread %.2f pips\n",
		result.Symbol, result.Baseline.Metrics.TotalTrades, result.BaselineSpreadPips)
	printRow("baseline", result.Baseline)
	for _, sr := range result.Scenarios {
		printRow(sr.Scenario.ID, sr)
	}
	fmt.Printf("Scenarios passing PF >= %.2f: %d of %d\n",
		result.MinProfitFactor, result.ScenariosPassing, len(result.Scenarios))
}

func printRow(id string, sr stress.ScenarioResult) {
	gate := "FAIL"
	if sr.PassMin {
		gate = "PASS"
	}
	fmt.Printf("  %-12s profit %10.2f  PF %6.2f  DD %5.2f%%  %s\n",
		id, sr.Metrics.TotalNetProfit, sr.Metrics.ProfitFactor, sr.Metrics.MaxDrawdownPct, gate)
}
