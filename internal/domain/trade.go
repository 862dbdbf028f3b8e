package domain

// Trade is one reconstructed round trip: an opening deal paired with its
// closing deal. Trades are immutable once built; the resampler and the
// walk-forward scheduler consume them without mutation.
type Trade struct {
	DealID    int64   `json:"deal_id"` // closing deal ID
	OpenTime  string  `json:"open_time"`
	CloseTime string  `json:"time"`
	Symbol    string  `json:"symbol"`
	Direction string  `json:"direction"` // side of the opening leg
	Volume    float64 `json:"volume"`

	EntryPrice float64 `json:"entry_price"` // 0 when the opening leg was never seen
	ExitPrice  float64 `json:"exit_price"`

	// Combined over both legs.
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`

	Profit    float64 `json:"profit"`     // gross, as reported on the closing deal
	NetProfit float64 `json:"net_profit"` // balance delta when available, else profit+commission+swap
	Comment   string  `json:"comment"`
}

// ExtractionResult is the Trade Reconstructor's output for one deal log.
// Invariant: InitialBalance + sum(NetProfit) matches FinalBalance within
// floating-point tolerance when both balance markers were present.
type ExtractionResult struct {
	Trades          []Trade `json:"trades"`
	TotalProfit     float64 `json:"total_profit"`
	TotalNetProfit  float64 `json:"total_net_profit"`
	TotalCommission float64 `json:"total_commission"`
	TotalSwap       float64 `json:"total_swap"`
	InitialBalance  float64 `json:"initial_balance"`
	FinalBalance    float64 `json:"final_balance"`
}

// NetProfits returns the net-profit sequence in close order.
func (r *ExtractionResult) NetProfits() []float64 {
	profits := make([]float64, len(r.Trades))
	for i, t := range r.Trades {
		profits[i] = t.NetProfit
	}
	return profits
}
