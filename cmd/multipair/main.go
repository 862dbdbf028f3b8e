// Package main re-tests a strategy across multiple currency pairs through
// a headless strategy-tester terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/multipair"
	"ea-stress-lab/internal/tester"
)

func main() {
	eaName := flag.String("ea", "", "Expert advisor name")
	pairsFlag := flag.String("pairs", "", "Comma-separated pairs (default: majors)")
	primary := flag.String("primary", "", "Primary pair, tested first")
	timeframe := flag.String("timeframe", "H1", "Timeframe")
	fromDate := flag.String("from", "", "Period start (YYYY.MM.DD)")
	toDate := flag.String("to", "", "Period end (YYYY.MM.DD)")
	terminalPath := flag.String("terminal", "", "Path to the terminal executable (overrides config)")
	configPath := flag.String("config", "", "Optional settings YAML")
	runDir := flag.String("run-dir", "multipair_runs", "Directory for per-pair artifacts")
	inputsFlag := flag.String("inputs", "", "Fixed EA inputs as name=value,name=value")
	outPath := flag.String("out", "", "Write the full result JSON to this file")
	flag.Parse()

	if *eaName == "" || *fromDate == "" || *toDate == "" {
		fmt.Fprintln(os.Stderr, "Error: --ea, --from and --to are required")
		flag.Usage()
		os.Exit(1)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	terminal := settings.Terminal.Path
	if *terminalPath != "" {
		terminal = *terminalPath
	}
	if terminal == "" {
		fmt.Fprintln(os.Stderr, "Error: no terminal path (use --terminal or terminal.path in config)")
		os.Exit(1)
	}

	inputs, err := parseInputs(*inputsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing inputs: %v\n", err)
		os.Exit(1)
	}

	var pairs []string
	if *pairsFlag != "" {
		for _, p := range strings.Split(*pairsFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				pairs = append(pairs, strings.ToUpper(p))
			}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner, err := tester.NewRunner(tester.Options{
		TerminalPath: terminal,
		DataPath:     settings.Terminal.DataPath,
		Timeout:      settings.WalkForward.TimeoutPerRun(),
		Deposit:      settings.Terminal.Deposit,
		Currency:     settings.Terminal.Currency,
		Leverage:     settings.Terminal.Leverage,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating runner: %v\n", err)
		os.Exit(1)
	}

	testPairs := pairs
	if len(testPairs) == 0 {
		testPairs = multipair.DefaultPairs
	}
	pairCount := len(testPairs)
	if p := strings.ToUpper(*primary); p != "" && !contains(testPairs, p) {
		pairCount++
	}
	bar := progressbar.NewOptions(pairCount,
		progressbar.OptionSetDescription("Testing pairs..."),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
	)

	mp, err := multipair.NewTester(multipair.Options{
		Runner:     runner,
		Pairs:      pairs,
		RunDir:     *runDir,
		Inputs:     inputs,
		OnPairDone: func(multipair.PairResult) { bar.Add(1) },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Multi-pair test: %s on %d pairs, %s (%s to %s)\n",
		*eaName, pairCount, *timeframe, *fromDate, *toDate)

	result, err := mp.Test(ctx, *eaName, strings.ToUpper(*primary), *timeframe, *fromDate, *toDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()

	s := result.Summary
	fmt.Printf("Pairs: %d tested, %d profitable, %d failed\n",
		len(result.PairsTested), s.PairsProfitable, s.PairsFailed)
	if s.MaxProfitFactor > 0 {
		fmt.Printf("Profit factor: avg %.2f, range %.2f - %.2f\n",
			s.AverageProfitFactor, s.MinProfitFactor, s.MaxProfitFactor)
	}
	for _, pr := range result.Results {
		if pr.Success {
			fmt.Printf("  %s: OK  PF=%.2f\n", pr.Symbol, pr.Metrics.ProfitFactor)
		} else {
			fmt.Printf("  %s: FAIL  %s\n", pr.Symbol, pr.Error)
		}
	}
	robust := "NO"
	if result.IsRobust() {
		robust = "YES"
	}
	fmt.Printf("Robust across pairs: %s\n", robust)

	if *outPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outPath, err)
			os.Exit(1)
		}
		fmt.Printf("Result written to %s\n", *outPath)
	}
}

// parseInputs turns "Lots=0.1,StopLoss=50" into typed values.
func parseInputs(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	inputs := make(map[string]any)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed input %q, want name=value", pair)
		}
		inputs[name] = coerce(value)
	}
	return inputs, nil
}

func contains(pairs []string, symbol string) bool {
	for _, p := range pairs {
		if p == symbol {
			return true
		}
	}
	return false
}

func coerce(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
