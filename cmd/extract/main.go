// Package main reconstructs round-trip trades from a strategy-tester
// report's deal table.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"ea-stress-lab/internal/reconstruct"
	"ea-stress-lab/internal/reporting"
)

func main() {
	reportPath := flag.String("report", "", "Path to the backtest report (.html/.htm)")
	csvPath := flag.String("csv", "", "Write reconstructed trades to this CSV file")
	asJSON := flag.Bool("json", false, "Print the full extraction result as JSON")
	flag.Parse()

	if *reportPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --report is required")
		flag.Usage()
		os.Exit(1)
	}

	extraction, err := reconstruct.FromReport(*reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconstructing trades: %v\n", err)
		os.Exit(1)
	}

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *csvPath, err)
			os.Exit(1)
		}
		if err := reporting.RenderTradesCSV(f, extraction.Trades); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing %s: %v\n", *csvPath, err)
			os.Exit(1)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(extraction); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Reconstructed %d trades from %s\n", len(extraction.Trades), *reportPath)
	fmt.Printf("  Initial balance: %.2f\n", extraction.InitialBalance)
	fmt.Printf("  Final balance:   %.2f\n", extraction.FinalBalance)
	fmt.Printf("  Net profit:      %.2f\n", extraction.TotalNetProfit)
	fmt.Printf("  Commission:      %.2f\n", extraction.TotalCommission)
	fmt.Printf("  Swap:            %.2f\n", extraction.TotalSwap)
	if *csvPath != "" {
		fmt.Printf("Trades written to %s\n", *csvPath)
	}
}
