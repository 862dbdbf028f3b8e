package multipair

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"ea-stress-lab/internal/walkforward"
)

// stubRunner fakes the terminal: it writes a minimal summary report per
// symbol, or fails outright for configured symbols.
type stubRunner struct {
	dir           string
	profitFactors map[string]float64 // keyed by request symbol
	failOn        map[string]bool
	calls         []walkforward.BacktestRequest
}

func (r *stubRunner) RunBacktest(_ context.Context, req walkforward.BacktestRequest) (*walkforward.BacktestOutcome, error) {
	r.calls = append(r.calls, req)
	if r.failOn[req.Symbol] {
		return nil, errors.New("terminal exited with code 1")
	}
	content := fmt.Sprintf(`<table>
<tr><td>Initial Deposit:</td><td><b>10 000.00</b></td></tr>
<tr><td>Total Net Profit:</td><td><b>250.00</b></td></tr>
<tr><td>Profit Factor:</td><td><b>%.2f</b></td></tr>
<tr><td>Total Trades:</td><td><b>10</b></td></tr>
</table>`, r.profitFactors[req.Symbol])
	path := filepath.Join(r.dir, fmt.Sprintf("report_%s.html", req.Symbol))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return &walkforward.BacktestOutcome{ReportPath: path}, nil
}

func newTester(t *testing.T, opts Options) *Tester {
	t.Helper()
	tester, err := NewTester(opts)
	if err != nil {
		t.Fatalf("NewTester: %v", err)
	}
	return tester
}

func TestTestPrimaryPairRunsFirst(t *testing.T) {
	runner := &stubRunner{
		dir:           t.TempDir(),
		profitFactors: map[string]float64{"EURUSD": 1.8, "GBPUSD": 1.2, "USDJPY": 0.9},
	}
	tester := newTester(t, Options{
		Runner: runner,
		Pairs:  []string{"EURUSD", "GBPUSD", "USDJPY"},
		RunDir: t.TempDir(),
	})

	result, err := tester.Test(context.Background(), "TrendEA", "GBPUSD", "H1", "2023.01.01", "2024.01.01")
	if err != nil {
		t.Fatalf("Test: %v", err)
	}

	want := []string{"GBPUSD", "EURUSD", "USDJPY"}
	for i, sym := range want {
		if result.PairsTested[i] != sym {
			t.Errorf("pair %d = %s, want %s", i, result.PairsTested[i], sym)
		}
		if runner.calls[i].Symbol != sym {
			t.Errorf("call %d symbol = %s, want %s", i, runner.calls[i].Symbol, sym)
		}
	}
	if result.PrimaryPair != "GBPUSD" {
		t.Errorf("primary pair = %s, want GBPUSD", result.PrimaryPair)
	}
}

func TestTestPrependsUnlistedPrimary(t *testing.T) {
	runner := &stubRunner{
		dir:           t.TempDir(),
		profitFactors: map[string]float64{"AUDUSD": 1.6, "EURUSD": 1.4},
	}
	tester := newTester(t, Options{
		Runner: runner,
		Pairs:  []string{"EURUSD"},
		RunDir: t.TempDir(),
	})

	result, err := tester.Test(context.Background(), "TrendEA", "AUDUSD", "H1", "2023.01.01", "2024.01.01")
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if len(result.PairsTested) != 2 || result.PairsTested[0] != "AUDUSD" {
		t.Fatalf("pairs tested = %v, want AUDUSD first", result.PairsTested)
	}
}

func TestTestRecordsFailedPairAndContinues(t *testing.T) {
	runner := &stubRunner{
		dir:           t.TempDir(),
		profitFactors: map[string]float64{"EURUSD": 1.8, "USDJPY": 1.4},
		failOn:        map[string]bool{"GBPUSD": true},
	}
	tester := newTester(t, Options{
		Runner: runner,
		Pairs:  []string{"EURUSD", "GBPUSD", "USDJPY"},
		RunDir: t.TempDir(),
	})

	result, err := tester.Test(context.Background(), "TrendEA", "", "H1", "2023.01.01", "2024.01.01")
	if err != nil {
		t.Fatalf("Test: %v", err)
	}

	if len(result.Results) != 3 {
		t.Fatalf("expected 3 pair results, got %d", len(result.Results))
	}
	failed := result.Results[1]
	if failed.Success || failed.Error == "" {
		t.Errorf("GBPUSD should have failed with an error, got %+v", failed)
	}
	if result.Summary.PairsFailed != 1 {
		t.Errorf("pairs failed = %d, want 1", result.Summary.PairsFailed)
	}
	if result.Summary.PairsProfitable != 2 {
		t.Errorf("pairs profitable = %d, want 2", result.Summary.PairsProfitable)
	}
}

func TestTestSummaryProfitFactorSpread(t *testing.T) {
	runner := &stubRunner{
		dir:           t.TempDir(),
		profitFactors: map[string]float64{"EURUSD": 2.0, "GBPUSD": 1.0, "USDJPY": 1.5},
	}
	tester := newTester(t, Options{
		Runner: runner,
		Pairs:  []string{"EURUSD", "GBPUSD", "USDJPY"},
		RunDir: t.TempDir(),
	})

	result, err := tester.Test(context.Background(), "TrendEA", "", "H1", "2023.01.01", "2024.01.01")
	if err != nil {
		t.Fatalf("Test: %v", err)
	}

	s := result.Summary
	if math.Abs(s.AverageProfitFactor-1.5) > 1e-9 {
		t.Errorf("average PF = %v, want 1.5", s.AverageProfitFactor)
	}
	if s.MinProfitFactor != 1.0 || s.MaxProfitFactor != 2.0 {
		t.Errorf("PF range = %v..%v, want 1.0..2.0", s.MinProfitFactor, s.MaxProfitFactor)
	}
	// PF 1.0 is break-even, not profitable.
	if s.PairsProfitable != 2 {
		t.Errorf("pairs profitable = %d, want 2", s.PairsProfitable)
	}
}

func TestIsRobust(t *testing.T) {
	tests := []struct {
		name       string
		tested     int
		profitable int
		want       bool
	}{
		{"three of five", 5, 3, true},
		{"two of five fails both gates", 5, 2, false},
		{"three of three", 3, 3, true},
		{"two of two small set", 2, 2, true},
		{"three of four passes ratio", 4, 3, true},
		{"none", 5, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Result{
				PairsTested: make([]string, tc.tested),
				Summary:     Summary{PairsProfitable: tc.profitable},
			}
			if got := r.IsRobust(); got != tc.want {
				t.Errorf("IsRobust(%d/%d) = %v, want %v", tc.profitable, tc.tested, got, tc.want)
			}
		})
	}
}

func TestTestInvokesPairCallback(t *testing.T) {
	runner := &stubRunner{
		dir:           t.TempDir(),
		profitFactors: map[string]float64{"EURUSD": 1.8, "GBPUSD": 1.2},
	}
	var seen []string
	tester := newTester(t, Options{
		Runner:     runner,
		Pairs:      []string{"EURUSD", "GBPUSD"},
		RunDir:     t.TempDir(),
		OnPairDone: func(pr PairResult) { seen = append(seen, pr.Symbol) },
	})

	if _, err := tester.Test(context.Background(), "TrendEA", "", "H1", "2023.01.01", "2024.01.01"); err != nil {
		t.Fatalf("Test: %v", err)
	}
	if len(seen) != 2 || seen[0] != "EURUSD" || seen[1] != "GBPUSD" {
		t.Errorf("callback order = %v, want [EURUSD GBPUSD]", seen)
	}
}
