// Package montecarlo estimates profit dispersion and ruin probability by
// resampling the order of reconstructed trades. A robust strategy keeps its
// edge regardless of the sequence its trades happened to arrive in.
package montecarlo

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/stats"
)

// Config carries the resampling parameters. Thresholds live here rather
// than in process-wide state so concurrent runs can disagree.
type Config struct {
	Iterations         int
	RuinThresholdPct   float64 // equity loss % considered ruin
	ConfidenceMin      float64 // robust verdict: min % of profitable iterations
	MaxRuinProbability float64 // robust verdict: max % of ruined iterations
	Workers            int     // parallel fan-out; <=1 runs sequentially
	Seed               *int64  // optional, for reproducible runs
}

// DefaultConfig returns the standard resampling parameters.
func DefaultConfig() Config {
	return Config{
		Iterations:         1000,
		RuinThresholdPct:   50,
		ConfidenceMin:      70,
		MaxRuinProbability: 5,
		Workers:            runtime.NumCPU(),
	}
}

// Result aggregates all iterations of one simulation. Individual iterations
// are never kept; only the distribution summary survives.
type Result struct {
	Iterations     int     `json:"iterations"`
	InitialBalance float64 `json:"initial_balance"`

	// Profit distribution (final equity minus initial balance)
	MedianProfit         float64 `json:"median_profit"`
	MeanProfit           float64 `json:"mean_profit"`
	ProfitStd            float64 `json:"profit_std"`
	Profit5thPercentile  float64 `json:"profit_5th_percentile"`
	Profit95thPercentile float64 `json:"profit_95th_percentile"`

	// Max drawdown distribution
	MedianMaxDrawdown         float64 `json:"median_max_drawdown"`
	MeanMaxDrawdown           float64 `json:"mean_max_drawdown"`
	MaxDrawdown95thPercentile float64 `json:"max_drawdown_95th_percentile"`

	// Confidence
	ConfidenceLevel   float64 `json:"confidence_level"`    // % of iterations with profit > 0
	ProbabilityOfRuin float64 `json:"probability_of_ruin"` // % of iterations that touched the ruin floor
	RuinThresholdPct  float64 `json:"ruin_threshold_pct"`

	// Unshuffled reference
	OriginalProfit   float64 `json:"original_profit"`
	OriginalDrawdown float64 `json:"original_drawdown"`

	TradeCount int  `json:"trade_count"`
	IsRobust   bool `json:"is_robust"`
}

// curveStats summarizes one replayed equity curve.
type curveStats struct {
	finalEquity    float64
	maxDrawdown    float64
	maxDrawdownPct float64
	ruinOccurred   bool
}

// Simulator runs trade-order resampling.
type Simulator struct {
	cfg Config
}

// New creates a Simulator. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Simulator {
	def := DefaultConfig()
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.RuinThresholdPct <= 0 {
		cfg.RuinThresholdPct = def.RuinThresholdPct
	}
	if cfg.ConfidenceMin <= 0 {
		cfg.ConfidenceMin = def.ConfidenceMin
	}
	if cfg.MaxRuinProbability <= 0 {
		cfg.MaxRuinProbability = def.MaxRuinProbability
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &Simulator{cfg: cfg}
}

// Run resamples the trades' net-profit sequence. With zero trades it
// returns the degenerate result (zero iterations, 100% ruin) rather than
// dividing by zero.
func (s *Simulator) Run(ctx context.Context, trades []domain.Trade, initialBalance float64) (*Result, error) {
	if len(trades) == 0 {
		return s.emptyResult(initialBalance), nil
	}

	profits := make([]float64, len(trades))
	originalProfit := 0.0
	for i, t := range trades {
		profits[i] = t.NetProfit
		originalProfit += t.NetProfit
	}

	original := replayCurve(profits, initialBalance, s.cfg.RuinThresholdPct)

	baseSeed := time.Now().UnixNano()
	if s.cfg.Seed != nil {
		baseSeed = *s.cfg.Seed
	}

	// Independent iterations, independently seeded: iteration i always uses
	// baseSeed+i, so a seeded run reproduces regardless of worker count.
	// No shared accumulator during the parallel phase; each iteration
	// writes its own slot.
	curves := make([]curveStats, s.cfg.Iterations)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := 0; i < s.cfg.Iterations; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(baseSeed + int64(i)))
			shuffled := make([]float64, len(profits))
			copy(shuffled, profits)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			curves[i] = replayCurve(shuffled, initialBalance, s.cfg.RuinThresholdPct)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reduction phase.
	finalProfits := make([]float64, len(curves))
	maxDrawdowns := make([]float64, len(curves))
	profitable := 0
	ruined := 0
	for i, c := range curves {
		finalProfits[i] = c.finalEquity - initialBalance
		maxDrawdowns[i] = c.maxDrawdown
		if finalProfits[i] > 0 {
			profitable++
		}
		if c.ruinOccurred {
			ruined++
		}
	}

	n := float64(s.cfg.Iterations)
	result := &Result{
		Iterations:     s.cfg.Iterations,
		InitialBalance: initialBalance,

		MedianProfit:         stats.Median(finalProfits),
		MeanProfit:           stats.Mean(finalProfits),
		ProfitStd:            stats.StddevSample(finalProfits),
		Profit5thPercentile:  stats.Percentile(finalProfits, 5),
		Profit95thPercentile: stats.Percentile(finalProfits, 95),

		MedianMaxDrawdown:         stats.Median(maxDrawdowns),
		MeanMaxDrawdown:           stats.Mean(maxDrawdowns),
		MaxDrawdown95thPercentile: stats.Percentile(maxDrawdowns, 95),

		ConfidenceLevel:   float64(profitable) / n * 100,
		ProbabilityOfRuin: float64(ruined) / n * 100,
		RuinThresholdPct:  s.cfg.RuinThresholdPct,

		OriginalProfit:   originalProfit,
		OriginalDrawdown: original.maxDrawdown,

		TradeCount: len(trades),
	}
	result.IsRobust = result.ConfidenceLevel >= s.cfg.ConfidenceMin &&
		result.ProbabilityOfRuin <= s.cfg.MaxRuinProbability

	return result, nil
}

// replayCurve replays a profit sequence as a cumulative equity curve.
func replayCurve(profits []float64, initialBalance, ruinThresholdPct float64) curveStats {
	equity := initialBalance
	peak := initialBalance
	ruinFloor := initialBalance * (1 - ruinThresholdPct/100)

	var c curveStats
	for _, p := range profits {
		equity += p
		if equity > peak {
			peak = equity
		}
		drawdown := peak - equity
		if drawdown > c.maxDrawdown {
			c.maxDrawdown = drawdown
			if peak > 0 {
				c.maxDrawdownPct = drawdown / peak * 100
			}
		}
		if equity <= ruinFloor {
			c.ruinOccurred = true
		}
	}
	c.finalEquity = equity
	return c
}

func (s *Simulator) emptyResult(initialBalance float64) *Result {
	return &Result{
		Iterations:        0,
		InitialBalance:    initialBalance,
		ConfidenceLevel:   0,
		ProbabilityOfRuin: 100,
		RuinThresholdPct:  s.cfg.RuinThresholdPct,
	}
}

// OriginalCurve computes the unshuffled equity curve as storable points,
// one per trade in close order.
func OriginalCurve(runID string, trades []domain.Trade, initialBalance float64) []domain.EquityPoint {
	points := make([]domain.EquityPoint, 0, len(trades))
	equity := initialBalance
	peak := initialBalance
	for i, t := range trades {
		equity += t.NetProfit
		if equity > peak {
			peak = equity
		}
		points = append(points, domain.EquityPoint{
			RunID:      runID,
			TradeIndex: i,
			Equity:     equity,
			Drawdown:   peak - equity,
		})
	}
	return points
}
