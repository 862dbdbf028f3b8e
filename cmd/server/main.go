// Package main serves stored validation results over HTTP: runs, trades,
// equity curves and the strategy leaderboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ea-stress-lab/internal/api"
	"ea-stress-lab/internal/storage"
	chstore "ea-stress-lab/internal/storage/clickhouse"
	"ea-stress-lab/internal/storage/memory"
	"ea-stress-lab/internal/storage/migrations"
	pgstore "ea-stress-lab/internal/storage/postgres"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (empty = in-memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (empty = no equity curves)")
	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		runs         storage.ValidationRunStore
		trades       storage.TradeStore
		leaderboard  storage.LeaderboardStore
		equityCurves storage.EquityCurveStore
	)

	if *postgresDSN == "" {
		logger.Println("no postgres DSN given, serving empty in-memory stores")
		runs = memory.NewValidationRunStore()
		trades = memory.NewTradeStore()
		leaderboard = memory.NewLeaderboardStore()
		equityCurves = memory.NewEquityCurveStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}
		runs = pgstore.NewValidationRunStore(pool)
		trades = pgstore.NewTradeStore(pool)
		leaderboard = pgstore.NewLeaderboardStore(pool)

		if *clickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatalf("clickhouse migrations: %v", err)
			}
			defer conn.Close()
			equityCurves = chstore.NewEquityCurveStore(conn)
		}
	}

	server := api.NewServer(api.Options{
		Port:         *port,
		Runs:         runs,
		Trades:       trades,
		Leaderboard:  leaderboard,
		EquityCurves: equityCurves,
		Logger:       logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Println("shutting down...")
		if err := server.Shutdown(); err != nil {
			logger.Fatalf("shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	}
}
