// Package config holds the validation pipeline's tunable thresholds.
// Settings load from a YAML file layered over defaults, so a config file
// only needs to name the values it changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds are the pass criteria applied to a backtest's headline metrics.
type Thresholds struct {
	MinProfitFactor float64 `yaml:"min_profit_factor"`
	MaxDrawdownPct  float64 `yaml:"max_drawdown_pct"`
	MinTrades       int     `yaml:"min_trades"`
	MinWinRate      float64 `yaml:"min_win_rate"`
}

// MonteCarlo configures the trade-order resampler.
type MonteCarlo struct {
	Iterations         int     `yaml:"iterations"`
	ConfidenceMin      float64 `yaml:"confidence_min"`
	MaxRuinProbability float64 `yaml:"max_ruin_probability"`
	RuinThresholdPct   float64 `yaml:"ruin_threshold_pct"`
	Workers            int     `yaml:"workers"`
}

// WalkForward configures multi-fold re-testing.
type WalkForward struct {
	FoldMonths     int  `yaml:"fold_months"`
	StepMonths     int  `yaml:"step_months"`
	MinISMonths    int  `yaml:"min_is_months"`
	MaxFolds       int  `yaml:"max_folds"`
	IncludeIS      bool `yaml:"include_is"`
	TimeoutPerRunS int  `yaml:"timeout_per_run_seconds"`
}

// TimeoutPerRun returns the per-backtest timeout as a duration.
func (w WalkForward) TimeoutPerRun() time.Duration {
	return time.Duration(w.TimeoutPerRunS) * time.Second
}

// Scoring weights the leaderboard score's components. Negative weights
// penalize (lower is better).
type Scoring struct {
	ProfitFactor         float64 `yaml:"profit_factor"`
	WinRate              float64 `yaml:"win_rate"`
	MaxDrawdownPct       float64 `yaml:"max_drawdown_pct"`
	RecoveryFactor       float64 `yaml:"recovery_factor"`
	TotalTrades          float64 `yaml:"total_trades"`
	SharpeRatio          float64 `yaml:"sharpe_ratio"`
	MonteCarloConfidence float64 `yaml:"monte_carlo_confidence"`
}

// Terminal locates the strategy-tester installation.
type Terminal struct {
	Path     string `yaml:"path"`
	DataPath string `yaml:"data_path"`
	Deposit  int    `yaml:"deposit"`
	Currency string `yaml:"currency"`
	Leverage int    `yaml:"leverage"`
}

// Settings is the complete pipeline configuration.
type Settings struct {
	Thresholds  Thresholds  `yaml:"thresholds"`
	MonteCarlo  MonteCarlo  `yaml:"monte_carlo"`
	WalkForward WalkForward `yaml:"walk_forward"`
	Scoring     Scoring     `yaml:"scoring"`
	Terminal    Terminal    `yaml:"terminal"`
}

// Default returns the standard settings.
func Default() Settings {
	return Settings{
		Thresholds: Thresholds{
			MinProfitFactor: 1.5,
			MaxDrawdownPct:  30,
			MinTrades:       50,
			MinWinRate:      40,
		},
		MonteCarlo: MonteCarlo{
			Iterations:         1000,
			ConfidenceMin:      70,
			MaxRuinProbability: 5,
			RuinThresholdPct:   50,
		},
		WalkForward: WalkForward{
			FoldMonths:     12,
			StepMonths:     12,
			MinISMonths:    12,
			MaxFolds:       12,
			IncludeIS:      true,
			TimeoutPerRunS: 900,
		},
		Scoring: Scoring{
			ProfitFactor:         20,
			WinRate:              10,
			MaxDrawdownPct:       -2,
			RecoveryFactor:       15,
			TotalTrades:          0.1,
			SharpeRatio:          5,
			MonteCarloConfidence: 10,
		},
		Terminal: Terminal{
			Deposit:  10000,
			Currency: "USD",
			Leverage: 100,
		},
	}
}

// Load reads YAML from path over the defaults. A missing file is not an
// error; callers get the defaults back.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("config: %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects values that would make the pipeline nonsensical.
func (s Settings) Validate() error {
	if s.MonteCarlo.Iterations < 100 || s.MonteCarlo.Iterations > 100000 {
		return fmt.Errorf("monte_carlo.iterations %d out of range [100, 100000]", s.MonteCarlo.Iterations)
	}
	if s.MonteCarlo.RuinThresholdPct <= 0 || s.MonteCarlo.RuinThresholdPct > 100 {
		return fmt.Errorf("monte_carlo.ruin_threshold_pct %v out of range (0, 100]", s.MonteCarlo.RuinThresholdPct)
	}
	if s.MonteCarlo.ConfidenceMin < 0 || s.MonteCarlo.ConfidenceMin > 100 {
		return fmt.Errorf("monte_carlo.confidence_min %v out of range [0, 100]", s.MonteCarlo.ConfidenceMin)
	}
	if s.Thresholds.MinProfitFactor < 0 {
		return fmt.Errorf("thresholds.min_profit_factor must not be negative")
	}
	if s.WalkForward.FoldMonths <= 0 || s.WalkForward.StepMonths <= 0 || s.WalkForward.MinISMonths <= 0 {
		return fmt.Errorf("walk_forward months must be positive")
	}
	if s.WalkForward.MaxFolds <= 0 {
		return fmt.Errorf("walk_forward.max_folds must be positive")
	}
	return nil
}
