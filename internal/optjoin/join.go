package optjoin

import (
	"sort"

	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/stats"
)

// DefaultTopN is how many robust passes a report keeps by default.
const DefaultTopN = 5

// Report is the joined, robustness-filtered view of one optimization run.
// Zero robust passes is a legitimate outcome, not an error: it means no
// parameter combination survived both evaluation windows.
type Report struct {
	TotalPasses  int                       `json:"total_passes"`
	RobustPasses int                       `json:"robust_passes"`
	Best         *domain.RobustPassResult  `json:"best"`
	Top          []domain.RobustPassResult `json:"top"`
	ParamNames   []string                  `json:"param_names"`

	// Forward-profit dispersion over the robust subset only.
	ForwardProfitP5  float64 `json:"forward_profit_p5"`
	ForwardProfitP50 float64 `json:"forward_profit_p50"`
	ForwardProfitP95 float64 `json:"forward_profit_p95"`
}

// Join inner-joins the in-sample and forward tables on pass number and
// ranks the robust subset by summed profit, descending. A pass missing
// from either side is dropped, never treated as zero.
func Join(inSample, forward map[int]domain.OptimizationPass, paramNames []string, topN int) *Report {
	if topN <= 0 {
		topN = DefaultTopN
	}

	passNums := make([]int, 0, len(inSample))
	for num := range inSample {
		passNums = append(passNums, num)
	}
	sort.Ints(passNums)

	joined := make([]domain.RobustPassResult, 0, len(passNums))
	for _, num := range passNums {
		is := inSample[num]
		fwd, ok := forward[num]
		if !ok {
			continue
		}

		joined = append(joined, domain.RobustPassResult{
			PassNum: num,
			InSample: domain.WindowMetrics{
				Profit:       is.Profit,
				ProfitFactor: is.ProfitFactor,
				MaxDDPct:     is.EquityDDPct,
				Trades:       is.Trades,
			},
			Forward: domain.WindowMetrics{
				Profit:       fwd.Profit,
				ProfitFactor: fwd.ProfitFactor,
				MaxDDPct:     fwd.EquityDDPct,
				Trades:       fwd.Trades,
			},
			TotalProfit: is.Profit + fwd.Profit,
			IsRobust:    is.Profit > 0 && fwd.Profit > 0,
			Parameters:  is.Parameters,
		})
	}

	robust := make([]domain.RobustPassResult, 0, len(joined))
	for _, r := range joined {
		if r.IsRobust {
			robust = append(robust, r)
		}
	}

	// Ties keep pass-number order (stable sort).
	sort.SliceStable(robust, func(i, j int) bool {
		return robust[i].TotalProfit > robust[j].TotalProfit
	})

	report := &Report{
		TotalPasses:  len(joined),
		RobustPasses: len(robust),
		ParamNames:   paramNames,
	}

	if len(robust) > 0 {
		best := robust[0]
		report.Best = &best

		n := topN
		if n > len(robust) {
			n = len(robust)
		}
		report.Top = robust[:n]

		forwardProfits := make([]float64, len(robust))
		for i, r := range robust {
			forwardProfits[i] = r.Forward.Profit
		}
		report.ForwardProfitP5 = stats.Percentile(forwardProfits, 5)
		report.ForwardProfitP50 = stats.Percentile(forwardProfits, 50)
		report.ForwardProfitP95 = stats.Percentile(forwardProfits, 95)
	}

	return report
}

// JoinFiles parses both export files and joins them. Either file missing
// or unparsable fails the whole operation with that reason.
func JoinFiles(inSamplePath, forwardPath string, topN int) (*Report, error) {
	inSample, paramNames, err := ParseExportFile(inSamplePath)
	if err != nil {
		return nil, err
	}

	forward, _, err := ParseExportFile(forwardPath)
	if err != nil {
		return nil, err
	}

	return Join(inSample, forward, paramNames, topN), nil
}
