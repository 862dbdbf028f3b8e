// Package main runs the full validation pipeline for one backtest report:
// parsing → reconstruction → Monte Carlo → optimization join → persistence
// → ranking → report generation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/orchestrator"
	"ea-stress-lab/internal/storage"
	chstore "ea-stress-lab/internal/storage/clickhouse"
	"ea-stress-lab/internal/storage/memory"
	"ea-stress-lab/internal/storage/migrations"
	pgstore "ea-stress-lab/internal/storage/postgres"
)

func main() {
	reportPath := flag.String("report", "", "Path to the backtest report (.html/.htm)")
	eaName := flag.String("ea", "", "Expert advisor name (defaults to the report filename)")
	symbol := flag.String("symbol", "", "Symbol the report was produced on")
	timeframe := flag.String("timeframe", "", "Timeframe the report was produced on")
	fromDate := flag.String("from", "", "Backtest period start (YYYY.MM.DD)")
	toDate := flag.String("to", "", "Backtest period end (YYYY.MM.DD)")
	backPath := flag.String("back", "", "Optional in-sample optimization export (.xml)")
	forwardPath := flag.String("forward", "", "Optional forward optimization export (.xml)")
	configPath := flag.String("config", "", "Optional settings YAML")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (empty = in-memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (empty = no equity curve storage)")
	outputPath := flag.String("output", "", "Write the markdown report to this file (default stdout)")
	verbose := flag.Bool("verbose", false, "Verbose phase logging")
	flag.Parse()

	if *reportPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --report is required")
		flag.Usage()
		os.Exit(1)
	}
	if (*backPath == "") != (*forwardPath == "") {
		fmt.Fprintln(os.Stderr, "Error: --back and --forward must be given together")
		os.Exit(1)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up storage: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	orch := orchestrator.New(orchestrator.Options{
		RunStore:         stores.runs,
		TradeStore:       stores.trades,
		LeaderboardStore: stores.leaderboard,
		EquityCurveStore: stores.equityCurves,
		Settings:         settings,
		Verbose:          *verbose,
	})

	result, err := orch.Validate(ctx, orchestrator.Input{
		ReportPath:     *reportPath,
		EAName:         *eaName,
		Symbol:         *symbol,
		Timeframe:      *timeframe,
		FromDate:       *fromDate,
		ToDate:         *toDate,
		InSampleExport: *backPath,
		ForwardExport:  *forwardPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, []byte(result.Markdown), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("Run %s validated, report written to %s\n", result.RunID, *outputPath)
		return
	}

	fmt.Print(result.Markdown)
}

// pipelineStores bundles the orchestrator's storage dependencies.
type pipelineStores struct {
	runs         storage.ValidationRunStore
	trades       storage.TradeStore
	leaderboard  storage.LeaderboardStore
	equityCurves storage.EquityCurveStore
}

// createStores wires memory or database stores depending on the DSNs.
// Database mode runs migrations first.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string) (pipelineStores, func(), error) {
	if postgresDSN == "" {
		stores := pipelineStores{
			runs:         memory.NewValidationRunStore(),
			trades:       memory.NewTradeStore(),
			leaderboard:  memory.NewLeaderboardStore(),
			equityCurves: memory.NewEquityCurveStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return pipelineStores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return pipelineStores{}, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := pipelineStores{
		runs:        pgstore.NewValidationRunStore(pool),
		trades:      pgstore.NewTradeStore(pool),
		leaderboard: pgstore.NewLeaderboardStore(pool),
	}
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return pipelineStores{}, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.equityCurves = chstore.NewEquityCurveStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}
