// Package orchestrator provides end-to-end validation orchestration.
// It coordinates: report parsing → reconstruction → Monte Carlo →
// optimization join → persistence → ranking → reporting
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/idhash"
	"ea-stress-lab/internal/montecarlo"
	"ea-stress-lab/internal/mt5report"
	"ea-stress-lab/internal/observability"
	"ea-stress-lab/internal/optjoin"
	"ea-stress-lab/internal/rank"
	"ea-stress-lab/internal/reconstruct"
	"ea-stress-lab/internal/reporting"
	"ea-stress-lab/internal/storage"
)

// Orchestrator coordinates one full validation of a backtest report.
type Orchestrator struct {
	runStore         storage.ValidationRunStore
	tradeStore       storage.TradeStore
	leaderboardStore storage.LeaderboardStore
	equityCurveStore storage.EquityCurveStore

	settings config.Settings
	verbose  bool
	now      func() time.Time
}

// Options for creating Orchestrator. EquityCurveStore may be nil when no
// timeseries backend is configured.
type Options struct {
	RunStore         storage.ValidationRunStore
	TradeStore       storage.TradeStore
	LeaderboardStore storage.LeaderboardStore
	EquityCurveStore storage.EquityCurveStore

	Settings config.Settings
	Verbose  bool
	Clock    func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{
		runStore:         opts.RunStore,
		tradeStore:       opts.TradeStore,
		leaderboardStore: opts.LeaderboardStore,
		equityCurveStore: opts.EquityCurveStore,
		settings:         opts.Settings,
		verbose:          opts.Verbose,
		now:              now,
	}
}

// Input names one report to validate. InSampleExport and ForwardExport are
// optional optimization export files; when both are given the passes are
// joined and the best robust parameters land on the leaderboard entry.
type Input struct {
	ReportPath string
	EAName     string // defaults to the report filename stem
	Symbol     string
	Timeframe  string
	FromDate   string
	ToDate     string

	InSampleExport string
	ForwardExport  string
	Params         map[string]any
}

// Result contains everything one validation produced.
type Result struct {
	RunID      string
	Run        *domain.ValidationRun
	Extraction *domain.ExtractionResult
	Metrics    *domain.BacktestMetrics
	MonteCarlo *montecarlo.Result
	OptJoin    *optjoin.Report
	Entry      *domain.RankedStrategy
	Report     *reporting.Report
	Markdown   string
}

// Validate executes the full pipeline for one report.
// Phases:
//  1. Parse the report (deals + metrics)
//  2. Reconstruct trades
//  3. Monte Carlo resampling
//  4. Optimization join (when exports were given)
//  5. Persist run, trades and equity curve
//  6. Rank onto the leaderboard
//  7. Generate the report
func (o *Orchestrator) Validate(ctx context.Context, input Input) (result *Result, err error) {
	validateStart := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		observability.RecordValidation(status)
		observability.RecordPhase("validate", time.Since(validateStart).Seconds())
	}()

	eaName := input.EAName
	if eaName == "" {
		base := filepath.Base(input.ReportPath)
		eaName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	// Phase 1: Parse
	o.log("Phase 1: Parsing report %s...", input.ReportPath)
	content, err := mt5report.ReadReport(input.ReportPath)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (parse) failed: %w", err)
	}
	deals, err := mt5report.ParseDeals(content)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (parse) failed: %w", err)
	}
	metrics := mt5report.ParseMetrics(content)
	o.log("  Parsed %d deals", len(deals))

	// Phase 2: Reconstruct
	o.log("Phase 2: Reconstructing trades...")
	extraction := reconstruct.Reconstruct(deals)
	observability.RecordTradesReconstructed(len(extraction.Trades))
	o.log("  Reconstructed %d trades, net profit %.2f",
		len(extraction.Trades), extraction.TotalNetProfit)

	// Phase 3: Monte Carlo
	o.log("Phase 3: Monte Carlo (%d iterations)...", o.settings.MonteCarlo.Iterations)
	mcResult, err := o.runMonteCarlo(ctx, extraction)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (monte carlo) failed: %w", err)
	}
	observability.RecordMonteCarlo(mcResult.Iterations, mcResult.IsRobust)
	o.log("  Confidence %.1f%%, ruin %.1f%%, robust=%v",
		mcResult.ConfidenceLevel, mcResult.ProbabilityOfRuin, mcResult.IsRobust)

	// Phase 4: Optimization join
	var joinReport *optjoin.Report
	if input.InSampleExport != "" && input.ForwardExport != "" {
		o.log("Phase 4: Joining optimization exports...")
		joinReport, err = optjoin.JoinFiles(input.InSampleExport, input.ForwardExport, optjoin.DefaultTopN)
		if err != nil {
			return nil, fmt.Errorf("phase 4 (optimization join) failed: %w", err)
		}
		o.log("  %d of %d passes robust", joinReport.RobustPasses, joinReport.TotalPasses)
	} else {
		o.log("Phase 4: Skipping optimization join (no exports)")
	}

	// Phase 5: Persist
	runID := idhash.ComputeRunID(eaName, input.Symbol, input.Timeframe,
		input.FromDate, input.ToDate, input.ReportPath)
	run := o.buildRun(runID, eaName, input, extraction, mcResult, joinReport)

	o.log("Phase 5: Persisting run %s...", runID)
	if err := o.persist(ctx, run, extraction); err != nil {
		return nil, fmt.Errorf("phase 5 (persist) failed: %w", err)
	}

	// Phase 6: Rank
	o.log("Phase 6: Ranking...")
	entry, err := o.rankRun(ctx, eaName, metrics, mcResult, joinReport, input.Params)
	if err != nil {
		return nil, fmt.Errorf("phase 6 (rank) failed: %w", err)
	}
	if entry != nil {
		o.log("  %s scored %.2f (rank %d)", entry.EAName, entry.Score, entry.Rank)
	}

	// Phase 7: Report
	o.log("Phase 7: Generating report...")
	generator := reporting.NewGenerator(o.runStore, o.tradeStore, o.leaderboardStore,
		o.settings.Thresholds).WithClock(o.now)
	report, err := generator.Generate(ctx, runID, metrics)
	if err != nil {
		return nil, fmt.Errorf("phase 7 (report) failed: %w", err)
	}
	observability.RecordReportGenerated()

	o.log("Validation completed: run %s, %d trades, robust=%v",
		runID, len(extraction.Trades), mcResult.IsRobust)

	return &Result{
		RunID:      runID,
		Run:        run,
		Extraction: extraction,
		Metrics:    metrics,
		MonteCarlo: mcResult,
		OptJoin:    joinReport,
		Entry:      entry,
		Report:     report,
		Markdown:   reporting.RenderMarkdown(report),
	}, nil
}

func (o *Orchestrator) runMonteCarlo(ctx context.Context, extraction *domain.ExtractionResult) (*montecarlo.Result, error) {
	cfg := montecarlo.DefaultConfig()
	cfg.Iterations = o.settings.MonteCarlo.Iterations
	cfg.RuinThresholdPct = o.settings.MonteCarlo.RuinThresholdPct
	cfg.ConfidenceMin = o.settings.MonteCarlo.ConfidenceMin
	cfg.MaxRuinProbability = o.settings.MonteCarlo.MaxRuinProbability
	if o.settings.MonteCarlo.Workers > 0 {
		cfg.Workers = o.settings.MonteCarlo.Workers
	}

	initial := extraction.InitialBalance
	if initial == 0 {
		initial = float64(o.settings.Terminal.Deposit)
	}
	return montecarlo.New(cfg).Run(ctx, extraction.Trades, initial)
}

func (o *Orchestrator) buildRun(
	runID, eaName string,
	input Input,
	extraction *domain.ExtractionResult,
	mc *montecarlo.Result,
	join *optjoin.Report,
) *domain.ValidationRun {
	run := &domain.ValidationRun{
		RunID:     runID,
		EAName:    eaName,
		Symbol:    input.Symbol,
		Timeframe: input.Timeframe,
		FromDate:  input.FromDate,
		ToDate:    input.ToDate,
		CreatedAt: o.now(),

		TradeCount:      len(extraction.Trades),
		InitialBalance:  extraction.InitialBalance,
		FinalBalance:    extraction.FinalBalance,
		TotalNetProfit:  extraction.TotalNetProfit,
		TotalCommission: extraction.TotalCommission,
		TotalSwap:       extraction.TotalSwap,

		Iterations:          mc.Iterations,
		MedianProfit:        mc.MedianProfit,
		Profit5thPercentile: mc.Profit5thPercentile,
		ConfidenceLevel:     mc.ConfidenceLevel,
		ProbabilityOfRuin:   mc.ProbabilityOfRuin,
		MonteCarloRobust:    mc.IsRobust,
	}
	if join != nil {
		run.TotalPasses = join.TotalPasses
		run.RobustPasses = join.RobustPasses
	}
	return run
}

// persist writes the run, its trades and its equity curve. Duplicate keys
// mean the report was validated before; the stored rows win.
func (o *Orchestrator) persist(ctx context.Context, run *domain.ValidationRun, extraction *domain.ExtractionResult) error {
	if err := o.runStore.Insert(ctx, run); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			o.log("  Run %s already stored, skipping inserts", run.RunID)
			return nil
		}
		return fmt.Errorf("insert run: %w", err)
	}

	if err := o.tradeStore.InsertBulk(ctx, run.RunID, extraction.Trades); err != nil &&
		!errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("insert trades: %w", err)
	}

	if o.equityCurveStore != nil && len(extraction.Trades) > 0 {
		curve := montecarlo.OriginalCurve(run.RunID, extraction.Trades, run.InitialBalance)
		points := make([]*domain.EquityPoint, len(curve))
		for i := range curve {
			points[i] = &curve[i]
		}
		if err := o.equityCurveStore.InsertBulk(ctx, points); err != nil {
			return fmt.Errorf("insert equity curve: %w", err)
		}
	}

	return nil
}

// rankRun puts the EA on the leaderboard. Without parsed metrics there is
// nothing to score, so the leaderboard is left alone.
func (o *Orchestrator) rankRun(
	ctx context.Context,
	eaName string,
	metrics *domain.BacktestMetrics,
	mc *montecarlo.Result,
	join *optjoin.Report,
	params map[string]any,
) (*domain.RankedStrategy, error) {
	if metrics == nil {
		o.log("  No metrics parsed, skipping leaderboard")
		return nil, nil
	}

	if params == nil && join != nil && join.Best != nil {
		params = join.Best.Parameters
	}

	ranker := rank.NewRanker(o.leaderboardStore, o.settings.Scoring, o.now)
	return ranker.AddResult(ctx, eaName, *metrics, mc.ConfidenceLevel, params)
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
