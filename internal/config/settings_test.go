package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s != Default() {
		t.Errorf("missing file should yield defaults, got %+v", s)
	}
}

func TestLoadOverridesLayerOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
monte_carlo:
  iterations: 5000
  confidence_min: 80
walk_forward:
  fold_months: 6
  timeout_per_run_seconds: 300
terminal:
  path: /opt/mt5/terminal64.exe
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MonteCarlo.Iterations != 5000 {
		t.Errorf("iterations = %d, want 5000", s.MonteCarlo.Iterations)
	}
	if s.MonteCarlo.ConfidenceMin != 80 {
		t.Errorf("confidence_min = %v, want 80", s.MonteCarlo.ConfidenceMin)
	}
	if s.WalkForward.FoldMonths != 6 {
		t.Errorf("fold_months = %d, want 6", s.WalkForward.FoldMonths)
	}
	if s.WalkForward.TimeoutPerRun() != 5*time.Minute {
		t.Errorf("timeout = %v, want 5m", s.WalkForward.TimeoutPerRun())
	}
	if s.Terminal.Path != "/opt/mt5/terminal64.exe" {
		t.Errorf("terminal path = %q", s.Terminal.Path)
	}

	// Untouched sections keep their defaults.
	if s.MonteCarlo.RuinThresholdPct != 50 {
		t.Errorf("ruin_threshold_pct = %v, want default 50", s.MonteCarlo.RuinThresholdPct)
	}
	if s.Scoring.ProfitFactor != 20 {
		t.Errorf("scoring.profit_factor = %v, want default 20", s.Scoring.ProfitFactor)
	}
	if s.Thresholds.MinTrades != 50 {
		t.Errorf("thresholds.min_trades = %d, want default 50", s.Thresholds.MinTrades)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("monte_carlo: [not a map"), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"iterations too low", func(s *Settings) { s.MonteCarlo.Iterations = 10 }},
		{"iterations too high", func(s *Settings) { s.MonteCarlo.Iterations = 200000 }},
		{"ruin threshold zero", func(s *Settings) { s.MonteCarlo.RuinThresholdPct = 0 }},
		{"confidence above 100", func(s *Settings) { s.MonteCarlo.ConfidenceMin = 101 }},
		{"negative profit factor", func(s *Settings) { s.Thresholds.MinProfitFactor = -1 }},
		{"zero fold months", func(s *Settings) { s.WalkForward.FoldMonths = 0 }},
		{"zero max folds", func(s *Settings) { s.WalkForward.MaxFolds = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}
