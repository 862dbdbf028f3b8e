// Package optjoin parses the optimizer's paired export tables (in-sample
// and forward) and joins them into a robustness-filtered ranking. Column
// positions are resolved by header name at parse time: the parameter-column
// set differs per strategy, so nothing is addressed by fixed index.
package optjoin

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"ea-stress-lab/internal/domain"
)

// ErrMalformedExport is returned when an export has no parsable header row.
var ErrMalformedExport = errors.New("optimization export has no header row")

var (
	rowPattern        = regexp.MustCompile(`(?s)<Row>(.*?)</Row>`)
	cellPattern       = regexp.MustCompile(`(?s)<Data ss:Type="(?:Number|String)">(.*?)</Data>`)
	headerCellPattern = regexp.MustCompile(`(?s)<Data ss:Type="String">(.*?)</Data>`)
)

// ParseExportFile reads and parses one optimization export.
// A missing or unreadable file fails the whole operation, per contract.
func ParseExportFile(path string) (map[int]domain.OptimizationPass, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read optimization export %s: %w", path, err)
	}
	return ParseExport(string(content))
}

// ParseExport parses export content into passes keyed by pass number, plus
// the parameter column names. Rows with an unusable Pass cell are skipped;
// other unparsable cells are zero-filled.
func ParseExport(content string) (map[int]domain.OptimizationPass, []string, error) {
	header := headerCells(content)
	if len(header) == 0 {
		return nil, nil, ErrMalformedExport
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}
	idx := func(name string) (int, bool) {
		i, ok := colIndex[name]
		return i, ok
	}

	passIdx, hasPass := idx("Pass")
	if !hasPass {
		return nil, nil, fmt.Errorf("%w: missing Pass column", ErrMalformedExport)
	}

	// The back export names its objective "Result"; the forward export
	// splits it into "Forward Result" and "Back Result".
	resultIdx, hasResult := idx("Result")
	if !hasResult {
		resultIdx, hasResult = idx("Forward Result")
	}
	backResultIdx, hasBackResult := idx("Back Result")

	tradesIdx, hasTrades := idx("Trades")

	var paramNames []string
	if hasTrades {
		paramNames = header[tradesIdx+1:]
	}

	passes := make(map[int]domain.OptimizationPass)

	rows := rowPattern.FindAllStringSubmatch(content, -1)
	for _, row := range rows[1:] { // first row is the header
		cells := cellValues(row[1])
		if len(cells) == 0 {
			continue
		}

		if passIdx >= len(cells) {
			continue
		}
		passNum, err := strconv.ParseFloat(cells[passIdx], 64)
		if err != nil {
			continue
		}

		cellFloat := func(i int, ok bool) float64 {
			if !ok || i >= len(cells) || cells[i] == "" {
				return 0
			}
			f, err := strconv.ParseFloat(cells[i], 64)
			if err != nil {
				return 0
			}
			return f
		}

		p := domain.OptimizationPass{
			PassNum:        int(passNum),
			Result:         cellFloat(resultIdx, hasResult),
			Profit:         cellFloat(idx("Profit")),
			ExpectedPayoff: cellFloat(idx("Expected Payoff")),
			ProfitFactor:   cellFloat(idx("Profit Factor")),
			RecoveryFactor: cellFloat(idx("Recovery Factor")),
			SharpeRatio:    cellFloat(idx("Sharpe Ratio")),
			Custom:         cellFloat(idx("Custom")),
			EquityDDPct:    cellFloat(idx("Equity DD %")),
			Trades:         int(cellFloat(idx("Trades"))),
			BackResult:     cellFloat(backResultIdx, hasBackResult),
		}

		if len(paramNames) > 0 {
			params := make(map[string]any, len(paramNames))
			for i, name := range paramNames {
				cellIdx := tradesIdx + 1 + i
				if cellIdx >= len(cells) {
					continue
				}
				params[name] = coerceParam(cells[cellIdx])
			}
			p.Parameters = params
		}

		passes[p.PassNum] = p
	}

	return passes, paramNames, nil
}

func headerCells(content string) []string {
	match := rowPattern.FindStringSubmatch(content)
	if match == nil {
		return nil
	}

	raw := headerCellPattern.FindAllStringSubmatch(match[1], -1)
	cells := make([]string, 0, len(raw))
	for _, m := range raw {
		cells = append(cells, strings.TrimSpace(m[1]))
	}
	return cells
}

func cellValues(row string) []string {
	raw := cellPattern.FindAllStringSubmatch(row, -1)
	cells := make([]string, 0, len(raw))
	for _, m := range raw {
		cells = append(cells, strings.TrimSpace(m[1]))
	}
	return cells
}

// coerceParam converts a parameter cell to int or float when it looks
// numeric, keeping the string otherwise (enum-like inputs).
func coerceParam(value string) any {
	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	} else if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}
