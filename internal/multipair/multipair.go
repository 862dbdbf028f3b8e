// Package multipair re-tests a strategy across related currency pairs.
// A strategy that only survives on its optimization pair is curve-fit; a
// robust one stays profitable on neighbors it was never tuned for.
package multipair

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/mt5report"
	"ea-stress-lab/internal/stats"
	"ea-stress-lab/internal/walkforward"
)

// DefaultPairs is the major-pair set tested when none are configured.
var DefaultPairs = []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "EURJPY"}

// PairResult is one pair's backtest outcome. A failed run is recorded, not
// retried; remaining pairs still execute.
type PairResult struct {
	Symbol     string                  `json:"symbol"`
	Success    bool                    `json:"success"`
	Metrics    *domain.BacktestMetrics `json:"metrics,omitempty"`
	ReportPath string                  `json:"report_path,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Duration   time.Duration           `json:"duration_seconds"`
}

// IsProfitable reports whether the pair's run beat break-even.
func (r *PairResult) IsProfitable() bool {
	return r.Success && r.Metrics != nil && r.Metrics.ProfitFactor > 1.0
}

// Summary aggregates profitability across the tested pairs.
type Summary struct {
	PairsProfitable     int     `json:"pairs_profitable"`
	PairsFailed         int     `json:"pairs_failed"`
	AverageProfitFactor float64 `json:"average_profit_factor"`
	MinProfitFactor     float64 `json:"min_profit_factor"`
	MaxProfitFactor     float64 `json:"max_profit_factor"`
}

// Result is the full multi-pair evaluation, pairs in test order.
type Result struct {
	EAName      string        `json:"ea_name"`
	PrimaryPair string        `json:"primary_pair"`
	PairsTested []string      `json:"pairs_tested"`
	Results     []PairResult  `json:"results"`
	Summary     Summary       `json:"summary"`
	Duration    time.Duration `json:"total_duration_seconds"`
}

// IsRobust reports whether enough pairs were profitable: at least three, or
// 60% of the tested set when fewer than three pairs were requested.
func (r *Result) IsRobust() bool {
	if len(r.PairsTested) == 0 {
		return false
	}
	minProfitable := 3
	if len(r.PairsTested) < minProfitable {
		minProfitable = len(r.PairsTested)
	}
	if r.Summary.PairsProfitable >= minProfitable {
		return true
	}
	return float64(r.Summary.PairsProfitable)/float64(len(r.PairsTested)) >= 0.6
}

// Options configures a Tester. Nil Pairs falls back to DefaultPairs.
type Options struct {
	Runner walkforward.BacktestRunner
	Pairs  []string
	RunDir string
	Inputs map[string]any
	Clock  func() time.Time

	// OnPairDone, when set, is called after each pair completes.
	OnPairDone func(PairResult)
}

// Tester runs one fixed-parameter backtest per pair, sequentially. The
// terminal handles one evaluation at a time, so there is nothing to gain
// from fanning out.
type Tester struct {
	opts Options
}

// NewTester validates options and builds a Tester.
func NewTester(opts Options) (*Tester, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("multipair: runner is required")
	}
	if len(opts.Pairs) == 0 {
		opts.Pairs = DefaultPairs
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Tester{opts: opts}, nil
}

// Test runs the strategy on every pair and aggregates the summary. The
// primary pair always tests first, prepended when it is not already in the
// configured set.
func (t *Tester) Test(ctx context.Context, eaName, primaryPair, timeframe, fromDate, toDate string) (*Result, error) {
	started := t.opts.Clock()
	pairs := orderPairs(t.opts.Pairs, primaryPair)

	result := &Result{
		EAName:      eaName,
		PrimaryPair: pairs[0],
		PairsTested: pairs,
	}

	for _, symbol := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pr := t.runPair(ctx, eaName, symbol, timeframe, fromDate, toDate)
		result.Results = append(result.Results, pr)
		if t.opts.OnPairDone != nil {
			t.opts.OnPairDone(pr)
		}
	}

	result.Summary = summarize(result.Results)
	result.Duration = t.opts.Clock().Sub(started)
	return result, nil
}

// orderPairs moves the primary pair to the front, keeping the rest in
// configured order.
func orderPairs(pairs []string, primary string) []string {
	if primary == "" {
		return append([]string(nil), pairs...)
	}
	ordered := []string{primary}
	for _, p := range pairs {
		if p != primary {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func (t *Tester) runPair(ctx context.Context, eaName, symbol, timeframe, fromDate, toDate string) (pr PairResult) {
	started := t.opts.Clock()
	pr.Symbol = symbol
	defer func() { pr.Duration = t.opts.Clock().Sub(started) }()

	outcome, err := t.opts.Runner.RunBacktest(ctx, walkforward.BacktestRequest{
		EAName:    eaName,
		Symbol:    symbol,
		Timeframe: timeframe,
		FromDate:  fromDate,
		ToDate:    toDate,
		RunDir:    filepath.Join(t.opts.RunDir, symbol),
		Inputs:    t.opts.Inputs,
	})
	if err != nil {
		pr.Error = err.Error()
		return pr
	}
	pr.ReportPath = outcome.ReportPath

	metrics, err := mt5report.ParseMetricsFile(outcome.ReportPath)
	if err != nil {
		pr.Error = fmt.Sprintf("parse report: %v", err)
		return pr
	}
	pr.Metrics = metrics
	pr.Success = true
	return pr
}

func summarize(results []PairResult) Summary {
	var s Summary
	var pfs []float64
	for _, r := range results {
		if !r.Success {
			s.PairsFailed++
			continue
		}
		if r.IsProfitable() {
			s.PairsProfitable++
		}
		if r.Metrics != nil {
			pfs = append(pfs, r.Metrics.ProfitFactor)
		}
	}
	if len(pfs) > 0 {
		s.AverageProfitFactor = stats.Mean(pfs)
		s.MinProfitFactor = stats.Min(pfs)
		s.MaxProfitFactor = stats.Max(pfs)
	}
	return s
}
