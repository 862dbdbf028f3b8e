package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ea-stress-lab/internal/config"
	"ea-stress-lab/internal/storage/memory"
)

func dealRow(cells ...string) string {
	row := "<tr align=\"right\">"
	for _, c := range cells {
		row += "<td>" + c + "</td>"
	}
	return row + "</tr>\n"
}

// reportHTML builds a minimal report: summary table plus a balance deposit
// and two closed round trips, both profitable.
func reportHTML() string {
	summary := `
<tr><td>Total Net Profit:</td><td><b>489.60</b></td></tr>
<tr><td>Profit Factor:</td><td><b>1.80</b></td></tr>
<tr><td>Balance Drawdown Maximal:</td><td><b>10.40 (0.10%)</b></td></tr>
<tr><td>Total Trades:</td><td><b>60</b></td></tr>
<tr><td>Profit Trades (% of total):</td><td><b>36 (60.00%)</b></td></tr>
<tr><td>Initial Deposit:</td><td><b>10 000.00</b></td></tr>
`
	deals := dealRow("2024.01.02 10:00:00", "1", "", "balance", "", "", "", "", "", "", "10 000.00", "10 000.00", "deposit") +
		dealRow("2024.01.02 11:00:00", "2", "EURUSD", "buy", "in", "1.00", "1.10000", "2", "-3.50", "0.00", "0.00", "", "open") +
		dealRow("2024.01.02 15:00:00", "3", "EURUSD", "sell", "out", "1.00", "1.10500", "3", "-3.50", "-1.20", "500.00", "10 491.80", "close") +
		dealRow("2024.01.03 09:00:00", "4", "EURUSD", "sell", "in", "1.00", "1.10400", "4", "-1.10", "0.00", "0.00", "", "open") +
		dealRow("2024.01.03 12:00:00", "5", "EURUSD", "buy", "out", "1.00", "1.10410", "5", "-1.10", "0.00", "0.00", "10 489.60", "close")
	return "<html><body>" + summary + "<table>" + deals + "</table></body></html>"
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TrendEA.html")
	if err := os.WriteFile(path, []byte(reportHTML()), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	return path
}

func exportXML(headers []string, rows [][]string) string {
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\"?>\n<Workbook><Worksheet><Table>\n<Row>")
	for _, h := range headers {
		fmt.Fprintf(&sb, `<Data ss:Type="String">%s</Data>`, h)
	}
	sb.WriteString("</Row>\n")
	for _, row := range rows {
		sb.WriteString("<Row>")
		for _, c := range row {
			fmt.Fprintf(&sb, `<Data ss:Type="Number">%s</Data>`, c)
		}
		sb.WriteString("</Row>\n")
	}
	sb.WriteString("</Table></Worksheet></Workbook>")
	return sb.String()
}

func testSettings() config.Settings {
	s := config.Default()
	s.MonteCarlo.Iterations = 200
	s.MonteCarlo.Workers = 2
	return s
}

type fixture struct {
	orch   *Orchestrator
	runs   *memory.ValidationRunStore
	trades *memory.TradeStore
	board  *memory.LeaderboardStore
	curves *memory.EquityCurveStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	f := fixture{
		runs:   memory.NewValidationRunStore(),
		trades: memory.NewTradeStore(),
		board:  memory.NewLeaderboardStore(),
		curves: memory.NewEquityCurveStore(),
	}
	f.orch = New(Options{
		RunStore:         f.runs,
		TradeStore:       f.trades,
		LeaderboardStore: f.board,
		EquityCurveStore: f.curves,
		Settings:         testSettings(),
		Clock: func() time.Time {
			return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		},
	})
	return f
}

func TestValidateFullPipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.orch.Validate(ctx, Input{
		ReportPath: writeReport(t),
		Symbol:     "EURUSD",
		Timeframe:  "H1",
		FromDate:   "2024.01.01",
		ToDate:     "2024.12.31",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if result.RunID == "" {
		t.Fatal("expected a run ID")
	}
	if len(result.Extraction.Trades) != 2 {
		t.Fatalf("expected 2 reconstructed trades, got %d", len(result.Extraction.Trades))
	}
	if result.MonteCarlo.Iterations != 200 {
		t.Errorf("expected 200 iterations, got %d", result.MonteCarlo.Iterations)
	}
	// Both trades profitable, so every shuffle is profitable.
	if !result.MonteCarlo.IsRobust {
		t.Error("expected robust verdict for all-winning trades")
	}

	// EA name derived from the report filename.
	run, err := f.runs.GetByID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("stored run: %v", err)
	}
	if run.EAName != "TrendEA" {
		t.Errorf("expected EA name TrendEA, got %q", run.EAName)
	}
	if run.TradeCount != 2 || run.InitialBalance != 10000 {
		t.Errorf("unexpected run summary %+v", run)
	}
	if !run.MonteCarloRobust {
		t.Error("expected robust flag on stored run")
	}

	trades, err := f.trades.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("stored trades: %v", err)
	}
	if len(trades) != 2 {
		t.Errorf("expected 2 stored trades, got %d", len(trades))
	}

	points, err := f.curves.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("stored curve: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 curve points, got %d", len(points))
	}

	entry, err := f.board.GetByEA(ctx, "TrendEA")
	if err != nil {
		t.Fatalf("leaderboard entry: %v", err)
	}
	if entry.Rank != 1 || entry.Score <= 0 {
		t.Errorf("unexpected entry %+v", entry)
	}

	if result.Report == nil || result.Markdown == "" {
		t.Fatal("expected a rendered report")
	}
	if !strings.Contains(result.Markdown, "# Validation Report: TrendEA") {
		t.Errorf("unexpected markdown header:\n%s", result.Markdown)
	}
}

func TestValidateIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := Input{ReportPath: writeReport(t), Symbol: "EURUSD", Timeframe: "H1"}

	first, err := f.orch.Validate(ctx, input)
	if err != nil {
		t.Fatalf("first validate: %v", err)
	}
	second, err := f.orch.Validate(ctx, input)
	if err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if first.RunID != second.RunID {
		t.Errorf("run IDs differ: %s vs %s", first.RunID, second.RunID)
	}

	runs, err := f.runs.List(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 stored run after revalidation, got %d", len(runs))
	}

	entries, err := f.board.GetAll(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 leaderboard entry, got %d", len(entries))
	}
}

func TestValidateWithOptimizationExports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	headers := []string{"Pass", "Profit", "Trades", "StopLoss"}
	dir := t.TempDir()
	backPath := filepath.Join(dir, "back.xml")
	fwdPath := filepath.Join(dir, "forward.xml")

	back := exportXML(headers, [][]string{
		{"1", "100", "30", "50"},
		{"2", "-40", "25", "80"},
	})
	fwd := exportXML(headers, [][]string{
		{"1", "60", "12", "50"},
		{"2", "20", "10", "80"},
	})
	if err := os.WriteFile(backPath, []byte(back), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fwdPath, []byte(fwd), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := f.orch.Validate(ctx, Input{
		ReportPath:     writeReport(t),
		Symbol:         "EURUSD",
		Timeframe:      "H1",
		InSampleExport: backPath,
		ForwardExport:  fwdPath,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if result.OptJoin == nil {
		t.Fatal("expected optimization join report")
	}
	if result.OptJoin.TotalPasses != 2 || result.OptJoin.RobustPasses != 1 {
		t.Errorf("unexpected join summary %+v", result.OptJoin)
	}

	run, err := f.runs.GetByID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("stored run: %v", err)
	}
	if run.TotalPasses != 2 || run.RobustPasses != 1 {
		t.Errorf("join summary not persisted: %+v", run)
	}

	// Best robust pass parameters flow onto the leaderboard entry.
	entry, err := f.board.GetByEA(ctx, "TrendEA")
	if err != nil {
		t.Fatalf("leaderboard entry: %v", err)
	}
	if entry.Params["StopLoss"] == nil {
		t.Errorf("expected StopLoss param on entry, got %v", entry.Params)
	}
}

func TestValidateMissingReport(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Validate(context.Background(), Input{
		ReportPath: filepath.Join(t.TempDir(), "missing.html"),
	})
	if err == nil {
		t.Fatal("expected error for missing report")
	}
}

func TestValidateNoEquityCurveStore(t *testing.T) {
	f := newFixture(t)
	f.orch.equityCurveStore = nil

	result, err := f.orch.Validate(context.Background(), Input{
		ReportPath: writeReport(t),
		Symbol:     "EURUSD",
		Timeframe:  "H1",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected a run ID")
	}
}
