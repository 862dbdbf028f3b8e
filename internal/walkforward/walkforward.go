// Package walkforward re-runs backtests across rolling in-sample /
// out-of-sample folds with one fixed parameter set, then summarizes how the
// strategy holds up on data it was never optimized on.
package walkforward

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/mt5report"
	"ea-stress-lab/internal/observability"
	"ea-stress-lab/internal/reconstruct"
	"ea-stress-lab/internal/stats"
)

// DateLayout is the wire format for backtest window boundaries.
const DateLayout = "2006.01.02"

// Minimum out-of-sample profit factor for a fold to count as passing.
const passProfitFactor = 1.5

// BacktestRequest describes one fixed-parameter backtest over a window.
type BacktestRequest struct {
	EAName    string
	Symbol    string
	Timeframe string
	FromDate  string // DateLayout
	ToDate    string // DateLayout
	RunDir    string
	Inputs    map[string]any
}

// BacktestOutcome is what a runner hands back on success.
type BacktestOutcome struct {
	ReportPath string
}

// BacktestRunner executes a single backtest. Implementations are expected
// to honor ctx cancellation.
type BacktestRunner interface {
	RunBacktest(ctx context.Context, req BacktestRequest) (*BacktestOutcome, error)
}

// Window is one fold's pair of date ranges.
type Window struct {
	ISFrom  string `json:"is_from"`
	ISTo    string `json:"is_to"`
	OOSFrom string `json:"oos_from"`
	OOSTo   string `json:"oos_to"`
}

// PeriodResult captures one backtest window. A failed run is recorded, not
// retried; later folds still execute.
type PeriodResult struct {
	Success         bool                    `json:"success"`
	FromDate        string                  `json:"from_date"`
	ToDate          string                  `json:"to_date"`
	ReportPath      string                  `json:"report_path,omitempty"`
	Metrics         *domain.BacktestMetrics `json:"metrics,omitempty"`
	TotalCommission float64                 `json:"total_commission"`
	TotalSwap       float64                 `json:"total_swap"`
	Error           string                  `json:"error,omitempty"`
	Duration        time.Duration           `json:"duration_seconds"`
}

// FoldResult pairs the in-sample and out-of-sample runs of one fold.
type FoldResult struct {
	FoldIndex int           `json:"fold_index"`
	InSample  *PeriodResult `json:"is,omitempty"`
	OutSample *PeriodResult `json:"oos"`
}

// Summary aggregates out-of-sample quality across folds.
type Summary struct {
	FoldsTotal        int     `json:"folds_total"`
	OOSPassing        int     `json:"oos_pass_pf_15"` // folds with OOS PF >= 1.5
	OOSPFMedian       float64 `json:"oos_pf_median"`
	OOSPFWorst        float64 `json:"oos_pf_worst"`
	OOSROIMedian      float64 `json:"oos_roi_median"`
	OOSROIWorst       float64 `json:"oos_roi_worst"`
	OOSFoldsEvaluated int     `json:"oos_folds_evaluated"` // folds that produced metrics
}

// Result is the full multi-fold evaluation.
type Result struct {
	EAName      string        `json:"ea_name"`
	Symbol      string        `json:"symbol"`
	Timeframe   string        `json:"timeframe"`
	FromDate    string        `json:"from_date"`
	ToDate      string        `json:"to_date"`
	FoldMonths  int           `json:"fold_months"`
	StepMonths  int           `json:"step_months"`
	MinISMonths int           `json:"min_is_months"`
	IncludeIS   bool          `json:"include_is"`
	Folds       []FoldResult  `json:"folds"`
	Summary     Summary       `json:"summary"`
	Duration    time.Duration `json:"total_duration_seconds"`
}

// Options configures a Tester. Zero month values fall back to 12.
type Options struct {
	Runner      BacktestRunner
	FoldMonths  int
	StepMonths  int
	MinISMonths int
	MaxFolds    int
	IncludeIS   bool
	RunDir      string
	Inputs      map[string]any
	Clock       func() time.Time

	// OnFoldDone, when set, is called after each fold completes.
	OnFoldDone func(FoldResult)
}

// Tester runs multi-fold walk-forward evaluation using fixed parameters.
type Tester struct {
	opts Options
}

// NewTester validates options and builds a Tester.
func NewTester(opts Options) (*Tester, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("walkforward: runner is required")
	}
	if opts.FoldMonths <= 0 {
		opts.FoldMonths = 12
	}
	if opts.StepMonths <= 0 {
		opts.StepMonths = 12
	}
	if opts.MinISMonths <= 0 {
		opts.MinISMonths = 12
	}
	if opts.MaxFolds <= 0 {
		opts.MaxFolds = 12
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Tester{opts: opts}, nil
}

// addMonths advances d by the given number of calendar months, clamping the
// day of month so Jan 31 + 1 month lands on the last day of February.
func addMonths(d time.Time, months int) time.Time {
	month := int(d.Month()) - 1 + months
	year := d.Year() + month/12
	month = month % 12
	day := d.Day()
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, d.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FoldWindows enumerates the fold date ranges for a total period. The
// in-sample window is anchored at the period start and grows with each fold;
// the out-of-sample window rolls forward by the step size. An empty or
// inverted period yields no folds.
func (t *Tester) FoldWindows(fromDate, toDate string) ([]Window, error) {
	start, err := time.Parse(DateLayout, fromDate)
	if err != nil {
		return nil, fmt.Errorf("walkforward: parse from date: %w", err)
	}
	end, err := time.Parse(DateLayout, toDate)
	if err != nil {
		return nil, fmt.Errorf("walkforward: parse to date: %w", err)
	}
	if !end.After(start) {
		return nil, nil
	}

	var windows []Window
	oosStart := addMonths(start, t.opts.MinISMonths)
	for oosStart.Before(end) && len(windows) < t.opts.MaxFolds {
		oosEnd := addMonths(oosStart, t.opts.FoldMonths)
		if oosEnd.After(end) {
			oosEnd = end
		}
		if !oosEnd.After(oosStart) {
			break
		}
		windows = append(windows, Window{
			ISFrom:  start.Format(DateLayout),
			ISTo:    oosStart.Format(DateLayout),
			OOSFrom: oosStart.Format(DateLayout),
			OOSTo:   oosEnd.Format(DateLayout),
		})
		oosStart = addMonths(oosStart, t.opts.StepMonths)
	}
	return windows, nil
}

// Test runs every fold in order and aggregates the out-of-sample summary.
func (t *Tester) Test(ctx context.Context, eaName, symbol, timeframe, fromDate, toDate string) (*Result, error) {
	started := t.opts.Clock()
	windows, err := t.FoldWindows(fromDate, toDate)
	if err != nil {
		return nil, err
	}

	result := &Result{
		EAName:      eaName,
		Symbol:      symbol,
		Timeframe:   timeframe,
		FromDate:    fromDate,
		ToDate:      toDate,
		FoldMonths:  t.opts.FoldMonths,
		StepMonths:  t.opts.StepMonths,
		MinISMonths: t.opts.MinISMonths,
		IncludeIS:   t.opts.IncludeIS,
	}

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		foldDir := filepath.Join(t.opts.RunDir, fmt.Sprintf("fold_%02d", i+1))

		fold := FoldResult{FoldIndex: i + 1}
		if t.opts.IncludeIS {
			fold.InSample = t.runPeriod(ctx, eaName, symbol, timeframe,
				w.ISFrom, w.ISTo, filepath.Join(foldDir, "IS"))
		}
		fold.OutSample = t.runPeriod(ctx, eaName, symbol, timeframe,
			w.OOSFrom, w.OOSTo, filepath.Join(foldDir, "OOS"))

		result.Folds = append(result.Folds, fold)
		observability.RecordFold()
		if t.opts.OnFoldDone != nil {
			t.opts.OnFoldDone(fold)
		}
	}

	result.Summary = summarize(result.Folds)
	result.Duration = t.opts.Clock().Sub(started)
	return result, nil
}

// runPeriod executes one backtest window and parses its artifacts. Failures
// are folded into the PeriodResult rather than aborting the whole test.
func (t *Tester) runPeriod(ctx context.Context, eaName, symbol, timeframe, fromDate, toDate, runDir string) *PeriodResult {
	started := t.opts.Clock()
	res := &PeriodResult{FromDate: fromDate, ToDate: toDate}
	defer func() { res.Duration = t.opts.Clock().Sub(started) }()

	outcome, err := t.opts.Runner.RunBacktest(ctx, BacktestRequest{
		EAName:    eaName,
		Symbol:    symbol,
		Timeframe: timeframe,
		FromDate:  fromDate,
		ToDate:    toDate,
		RunDir:    runDir,
		Inputs:    t.opts.Inputs,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.ReportPath = outcome.ReportPath

	metrics, err := mt5report.ParseMetricsFile(outcome.ReportPath)
	if err != nil {
		res.Error = fmt.Sprintf("parse report: %v", err)
		return res
	}
	res.Metrics = metrics
	res.Success = true

	if extraction, err := reconstruct.FromReport(outcome.ReportPath); err == nil {
		res.TotalCommission = extraction.TotalCommission
		res.TotalSwap = extraction.TotalSwap
	}
	return res
}

// summarize computes the cross-fold out-of-sample aggregates. Folds whose
// OOS run produced no metrics are counted in FoldsTotal but excluded from
// the distributions.
func summarize(folds []FoldResult) Summary {
	s := Summary{FoldsTotal: len(folds)}
	var pfs, rois []float64
	for _, f := range folds {
		if f.OutSample == nil || !f.OutSample.Success || f.OutSample.Metrics == nil {
			continue
		}
		m := f.OutSample.Metrics
		pfs = append(pfs, m.ProfitFactor)
		rois = append(rois, m.ROIPct)
		if m.ProfitFactor >= passProfitFactor {
			s.OOSPassing++
		}
	}
	s.OOSFoldsEvaluated = len(pfs)
	if len(pfs) > 0 {
		s.OOSPFMedian = stats.Median(pfs)
		s.OOSPFWorst = stats.Min(pfs)
		s.OOSROIMedian = stats.Median(rois)
		s.OOSROIWorst = stats.Min(rois)
	}
	return s
}
