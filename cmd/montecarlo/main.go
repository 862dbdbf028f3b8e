// Package main runs a Monte Carlo trade-order resampling against one
// backtest report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/montecarlo"
	"ea-stress-lab/internal/reconstruct"
)

func main() {
	reportPath := flag.String("report", "", "Path to the backtest report (.html/.htm)")
	configPath := flag.String("config", "", "Optional settings YAML")
	iterations := flag.Int("iterations", 0, "Iteration count (overrides config)")
	ruinPct := flag.Float64("ruin-pct", 0, "Equity loss %% counted as ruin (overrides config)")
	workers := flag.Int("workers", 0, "Parallel workers (overrides config)")
	seed := flag.Int64("seed", 0, "RNG seed for reproducible runs (0 = random)")
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	extraction, err := reconstruct.FromReport(*reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconstructing trades: %v\n", err)
		os.Exit(1)
	}

	cfg := montecarlo.Config{
		Iterations:         settings.MonteCarlo.Iterations,
		RuinThresholdPct:   settings.MonteCarlo.RuinThresholdPct,
		ConfidenceMin:      settings.MonteCarlo.ConfidenceMin,
		MaxRuinProbability: settings.MonteCarlo.MaxRuinProbability,
		Workers:            settings.MonteCarlo.Workers,
	}
	if *iterations > 0 {
		cfg.Iterations = *iterations
	}
	if *ruinPct > 0 {
		cfg.RuinThresholdPct = *ruinPct
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *seed != 0 {
		cfg.Seed = seed
	}

	initial := extraction.InitialBalance
	if initial == 0 {
		initial = float64(settings.Terminal.Deposit)
	}

	result, err := montecarlo.New(cfg).Run(ctx, extraction.Trades, initial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
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

	verdict := "NOT ROBUST"
	if result.IsRobust {
		verdict = "ROBUST"
	}
	fmt.Printf("Monte Carlo: %d iterations over %d trades\n", result.Iterations, result.TradeCount)
	fmt.Printf("  Original profit:       %.2f (drawdown %.2f)\n", result.OriginalProfit, result.OriginalDrawdown)
	fmt.Printf("  Median profit:         %.2f\n", result.MedianProfit)
	fmt.Printf("  Profit 5th percentile: %.2f\n", result.Profit5thPercentile)
	fmt.Printf("  Median max drawdown:   %.2f\n", result.MedianMaxDrawdown)
	fmt.Printf("  Confidence level:      %.1f%%\n", result.ConfidenceLevel)
	fmt.Printf("  Probability of ruin:   %.1f%%\n", result.ProbabilityOfRuin)
	fmt.Printf("Verdict: %s\n", verdict)
}
