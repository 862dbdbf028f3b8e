package domain

// DealType is the order side reported for a deal row.
type DealType string

// Deal type constants. The tester also emits bookkeeping rows
// ("balance", "credit", ...) which are not trading deals.
const (
	DealTypeBuy     DealType = "buy"
	DealTypeSell    DealType = "sell"
	DealTypeBalance DealType = "balance"
)

// DealDirection marks whether a deal opens or closes a position.
type DealDirection string

// Deal direction constants.
const (
	DirectionIn  DealDirection = "in"
	DirectionOut DealDirection = "out"
)

// Deal is one raw execution event from the tester's deal log, in arrival
// order. Deal and order IDs are not stable between the opening and closing
// leg of a position, so they cannot be used to pair legs.
type Deal struct {
	Time       string        `json:"time"`
	DealID     int64         `json:"deal_id"`
	Symbol     string        `json:"symbol"`
	Type       DealType      `json:"type"`
	Direction  DealDirection `json:"direction"`
	Volume     float64       `json:"volume"`
	Price      float64       `json:"price"`
	OrderID    int64         `json:"order_id"`
	Commission float64       `json:"commission"`
	Swap       float64       `json:"swap"`
	Profit     float64       `json:"profit"`
	Balance    float64       `json:"balance"`
	Comment    string        `json:"comment"`
}

// IsTrading reports whether the deal is an actual order execution
// (as opposed to a deposit/withdrawal or other balance row).
func (d *Deal) IsTrading() bool {
	return d.Type == DealTypeBuy || d.Type == DealTypeSell
}
