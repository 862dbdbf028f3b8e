// Package reconstruct turns the tester's raw open/close deal sequence into
// completed round-trip trades. The tester does not carry a stable position
// identifier from an opening deal to its closing deal, so legs are matched
// per (symbol, side) in last-in-first-out order, with a closing deal pairing
// against the most recent pending open of the opposite side.
package reconstruct

import (
	"ea-stress-lab/internal/domain"
	"ea-stress-lab/internal/mt5report"
)

// pendingOpen is the remembered state of an opening deal awaiting its close.
type pendingOpen struct {
	time          string
	price         float64
	commission    float64
	swap          float64
	balanceBefore float64
	direction     domain.DealType
}

type pairKey struct {
	symbol string
	side   domain.DealType
}

// Reconstruct builds completed trades from an ordered deal sequence.
//
// A closing deal with no pending open synthesizes a zero-basis entry rather
// than failing; the resulting entry price of 0 marks the ambiguity. Net
// profit per trade prefers the running-balance delta around the position
// (it captures costs applied outside the visible deal fields) and falls
// back to profit + commission + swap when no balance value is reported.
func Reconstruct(deals []domain.Deal) *domain.ExtractionResult {
	result := &domain.ExtractionResult{Trades: []domain.Trade{}}

	pending := make(map[pairKey][]pendingOpen)
	var previousBalance float64
	havePrevious := false

	for _, deal := range deals {
		balanceBefore := deal.Balance
		if havePrevious {
			balanceBefore = previousBalance
		}
		if deal.Balance > 0 {
			previousBalance = deal.Balance
			havePrevious = true
			result.FinalBalance = deal.Balance
		}

		// The first balance row is the deposit; its profit field carries
		// the deposited amount.
		if deal.Type == domain.DealTypeBalance && result.InitialBalance == 0 {
			result.InitialBalance = deal.Profit
		}

		if !deal.IsTrading() {
			continue
		}

		result.TotalCommission += deal.Commission
		result.TotalSwap += deal.Swap

		switch deal.Direction {
		case domain.DirectionIn:
			key := pairKey{deal.Symbol, deal.Type}
			pending[key] = append(pending[key], pendingOpen{
				time:          deal.Time,
				price:         deal.Price,
				commission:    deal.Commission,
				swap:          deal.Swap,
				balanceBefore: balanceBefore,
				direction:     deal.Type,
			})

		case domain.DirectionOut:
			openSide := domain.DealTypeSell
			if deal.Type == domain.DealTypeSell {
				openSide = domain.DealTypeBuy
			}
			entry, matched := popPending(pending, pairKey{deal.Symbol, openSide})
			if !matched {
				entry = pendingOpen{direction: openSide, balanceBefore: balanceBefore}
			}

			netProfit := deal.Profit + entry.commission + deal.Commission + entry.swap + deal.Swap
			if deal.Balance > 0 {
				netProfit = deal.Balance - entry.balanceBefore
			}

			result.Trades = append(result.Trades, domain.Trade{
				DealID:     deal.DealID,
				OpenTime:   entry.time,
				CloseTime:  deal.Time,
				Symbol:     deal.Symbol,
				Direction:  string(entry.direction),
				Volume:     deal.Volume,
				EntryPrice: entry.price,
				ExitPrice:  deal.Price,
				Commission: entry.commission + deal.Commission,
				Swap:       entry.swap + deal.Swap,
				Profit:     deal.Profit,
				NetProfit:  netProfit,
				Comment:    deal.Comment,
			})
		}
	}

	for _, t := range result.Trades {
		result.TotalProfit += t.Profit
		result.TotalNetProfit += t.NetProfit
	}

	return result
}

// popPending removes and returns the most recent pending open for key.
func popPending(pending map[pairKey][]pendingOpen, key pairKey) (pendingOpen, bool) {
	stack := pending[key]
	if len(stack) == 0 {
		return pendingOpen{}, false
	}
	entry := stack[len(stack)-1]
	pending[key] = stack[:len(stack)-1]
	return entry, true
}

// FromReport parses a report file and reconstructs its trades.
// Fails when the file is unreadable or contains no deal rows.
func FromReport(path string) (*domain.ExtractionResult, error) {
	deals, err := mt5report.ParseDealsFile(path)
	if err != nil {
		return nil, err
	}
	return Reconstruct(deals), nil
}
