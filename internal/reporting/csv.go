package reporting

import (
	"encoding/csv"
	"fmt"
	"io"

	"ea-stress-lab/internal/domain"
)

// RenderTradesCSV writes the reconstructed trade list as CSV.
func RenderTradesCSV(w io.Writer, trades []domain.Trade) error {
	cw := csv.NewWriter(w)

	header := []string{
		"deal_id", "open_time", "close_time", "symbol", "direction",
		"volume", "entry_price", "exit_price", "commission", "swap",
		"profit", "net_profit", "comment",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range trades {
		row := []string{
			fmt.Sprintf("%d", t.DealID),
			t.OpenTime,
			t.CloseTime,
			t.Symbol,
			t.Direction,
			fmt.Sprintf("%.2f", t.Volume),
			fmt.Sprintf("%.5f", t.EntryPrice),
			fmt.Sprintf("%.5f", t.ExitPrice),
			fmt.Sprintf("%.2f", t.Commission),
			fmt.Sprintf("%.2f", t.Swap),
			fmt.Sprintf("%.2f", t.Profit),
			fmt.Sprintf("%.2f", t.NetProfit),
			t.Comment,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
