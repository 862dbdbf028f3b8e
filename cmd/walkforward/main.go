// Package main drives multi-fold walk-forward re-testing through a
// headless strategy-tester terminal.
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
	"ea-stress-lab/internal/tester"
	"ea-stress-lab/internal/walkforward"
)

func main() {
	eaName := flag.String("ea", "", "Expert advisor name")
	symbol := flag.String("symbol", "EURUSD", "Symbol to test")
	timeframe := flag.String("timeframe", "H1", "Timeframe")
	fromDate := flag.String("from", "", "Period start (YYYY.MM.DD)")
	toDate := flag.String("to", "", "Period end (YYYY.MM.DD)")
	terminalPath := flag.String("terminal", "", "Path to the terminal executable (overrides config)")
	configPath := flag.String("config", "", "Optional settings YAML")
	runDir := flag.String("run-dir", "walkforward_runs", "Directory for per-fold artifacts")
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

	wf, err := walkforward.NewTester(walkforward.Options{
		Runner:      runner,
		FoldMonths:  settings.WalkForward.FoldMonths,
		StepMonths:  settings.WalkForward.StepMonths,
		MinISMonths: settings.WalkForward.MinISMonths,
		MaxFolds:    settings.WalkForward.MaxFolds,
		IncludeIS:   settings.WalkForward.IncludeIS,
		RunDir:      *runDir,
		Inputs:      inputs,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	windows, err := wf.FoldWindows(*fromDate, *toDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(windows) == 0 {
		fmt.Fprintln(os.Stderr, "Period too short for any folds")
		os.Exit(1)
	}

	fmt.Printf("Walk-forward: %s on %s %s, %d folds (%s to %s)\n",
		*eaName, *symbol, *timeframe, len(windows), *fromDate, *toDate)

	bar := progressbar.NewOptions(len(windows),
		progressbar.OptionSetDescription("Running folds..."),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
	)

	// Re-build with the progress callback now that the fold count is known.
	wf, err = walkforward.NewTester(walkforward.Options{
		Runner:      runner,
		FoldMonths:  settings.WalkForward.FoldMonths,
		StepMonths:  settings.WalkForward.StepMonths,
		MinISMonths: settings.WalkForward.MinISMonths,
		MaxFolds:    settings.WalkForward.MaxFolds,
		IncludeIS:   settings.WalkForward.IncludeIS,
		RunDir:      *runDir,
		Inputs:      inputs,
		OnFoldDone:  func(walkforward.FoldResult) { bar.Add(1) },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := wf.Test(ctx, *eaName, *symbol, *timeframe, *fromDate, *toDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()

	s := result.Summary
	fmt.Printf("Folds: %d total, %d evaluated, %d passing (OOS PF >= 1.5)\n",
		s.FoldsTotal, s.OOSFoldsEvaluated, s.OOSPassing)
	if s.OOSFoldsEvaluated > 0 {
		fmt.Printf("OOS profit factor: median %.2f, worst %.2f\n", s.OOSPFMedian, s.OOSPFWorst)
		fmt.Printf("OOS ROI:           median %.2f%%, worst %.2f%%\n", s.OOSROIMedian, s.OOSROIWorst)
	}
	for _, f := range result.Folds {
		if f.OutSample != nil && f.OutSample.Error != "" {
			fmt.Printf("  fold %d OOS failed: %s\n", f.FoldIndex, f.OutSample.Error)
		}
	}

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
