package mt5report

import (
	"errors"
	"regexp"
	"strings"

	"ea-stress-lab/internal/domain"
)

// ErrNoDeals is returned when a report contains no parsable deal rows.
var ErrNoDeals = errors.New("no deal rows found in report")

// dealRowPattern matches one row of the deals table. Column order is fixed
// by the tester: time, deal, symbol, type, direction, volume, price, order,
// commission, swap, profit, balance, comment.
var dealRowPattern = regexp.MustCompile(`(?is)<tr[^>]*>\s*` +
	strings.Repeat(`<td[^>]*>([^<]*)</td>\s*`, 12) +
	`<td[^>]*>([^<]*)</td>`)

// ParseDeals extracts the ordered deal sequence from report content.
// Rows with unparsable numeric cells are kept with zeroed fields; only a
// report with no matching rows at all is an error.
func ParseDeals(content string) ([]domain.Deal, error) {
	matches := dealRowPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, ErrNoDeals
	}

	deals := make([]domain.Deal, 0, len(matches))
	for _, m := range matches {
		deals = append(deals, domain.Deal{
			Time:       strings.TrimSpace(m[1]),
			DealID:     parseInt(m[2]),
			Symbol:     strings.TrimSpace(m[3]),
			Type:       domain.DealType(strings.ToLower(strings.TrimSpace(m[4]))),
			Direction:  domain.DealDirection(strings.ToLower(strings.TrimSpace(m[5]))),
			Volume:     parseFloat(m[6]),
			Price:      parseFloat(m[7]),
			OrderID:    parseInt(m[8]),
			Commission: parseFloat(m[9]),
			Swap:       parseFloat(m[10]),
			Profit:     parseFloat(m[11]),
			Balance:    parseFloat(m[12]),
			Comment:    strings.TrimSpace(m[13]),
		})
	}

	return deals, nil
}

// ParseDealsFile reads and parses a report's deal table in one step.
func ParseDealsFile(path string) ([]domain.Deal, error) {
	content, err := ReadReport(path)
	if err != nil {
		return nil, err
	}
	return ParseDeals(content)
}
