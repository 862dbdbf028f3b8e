package tester

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ea-stress-lab/internal/observability"
	"ea-stress-lab/internal/walkforward"
)

// Options configures a Runner.
type Options struct {
	TerminalPath string        // terminal64 executable
	DataPath     string        // terminal data folder where reports may land
	Timeout      time.Duration // per backtest; 0 means 15 minutes
	Deposit      int
	Currency     string
	Leverage     int
	Model        int
	Clock        func() time.Time
}

// Runner executes headless strategy-tester runs. It satisfies
// walkforward.BacktestRunner. The terminal handles one evaluation at a
// time, so concurrent callers serialize on an internal mutex.
type Runner struct {
	opts Options

	mu sync.Mutex
}

// NewRunner validates options and builds a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.TerminalPath == "" {
		return nil, fmt.Errorf("tester: terminal path is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Minute
	}
	if opts.Deposit <= 0 {
		opts.Deposit = 10000
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Leverage <= 0 {
		opts.Leverage = 100
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Runner{opts: opts}, nil
}

// RunBacktest generates an INI for the requested window, launches the
// terminal against it, and locates the report it produced. A run that
// exceeds the timeout is killed and reported as an error.
func (r *Runner) RunBacktest(ctx context.Context, req walkforward.BacktestRequest) (*walkforward.BacktestOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.opts.Clock()
	if err := os.MkdirAll(req.RunDir, 0o755); err != nil {
		return nil, fmt.Errorf("tester: create run dir: %w", err)
	}

	reportName := fmt.Sprintf("%s_BT_%s", req.EAName, started.Format("20060102_150405.000"))
	iniPath := filepath.Join(req.RunDir, fmt.Sprintf("%s_backtest.ini", req.EAName))

	cfg := Config{
		Expert:           req.EAName,
		Symbol:           req.Symbol,
		Period:           req.Timeframe,
		Model:            r.opts.Model,
		Deposit:          r.opts.Deposit,
		Currency:         r.opts.Currency,
		Leverage:         r.opts.Leverage,
		FromDate:         req.FromDate,
		ToDate:           req.ToDate,
		ReportName:       reportName,
		ReplaceReport:    true,
		ShutdownTerminal: true,
		UseLocal:         true,
		Inputs:           fixedInputs(req.Inputs),
	}
	if err := WriteINI(cfg, iniPath); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.opts.TerminalPath, "/config:"+iniPath)
	cmd.Dir = req.RunDir
	execStart := time.Now()
	err := cmd.Run()
	observability.RecordBacktestDuration(time.Since(execStart).Seconds())
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("tester: backtest timed out after %s", r.opts.Timeout)
		}
		return nil, fmt.Errorf("tester: terminal: %w", err)
	}

	reportPath, err := r.findReport(reportName, req.RunDir)
	if err != nil {
		return nil, err
	}
	return &walkforward.BacktestOutcome{ReportPath: reportPath}, nil
}

// fixedInputs converts a plain parameter map to non-optimized tester
// inputs, sorted by name so generated INI files are stable.
func fixedInputs(inputs map[string]any) []InputParam {
	if len(inputs) == 0 {
		return nil
	}
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]InputParam, 0, len(names))
	for _, name := range names {
		params = append(params, InputParam{Name: name, Value: inputs[name]})
	}
	return params
}

// findReport checks the places the terminal is known to drop reports.
// The run directory comes first since UseLocal runs usually land there.
func (r *Runner) findReport(reportName, runDir string) (string, error) {
	dirs := []string{runDir}
	if r.opts.DataPath != "" {
		dirs = append(dirs, r.opts.DataPath, filepath.Join(r.opts.DataPath, "Tester"))
	}
	for _, dir := range dirs {
		for _, ext := range []string{".htm", ".html", ".xml"} {
			candidate := filepath.Join(dir, reportName+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("tester: report %s not generated", reportName)
}
