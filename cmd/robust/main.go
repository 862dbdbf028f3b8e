// Package main joins an in-sample optimization export with its forward
// counterpart and reports the parameter sets profitable in both windows.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"ea-stress-lab/internal/optjoin"
)

func main() {
	backPath := flag.String("back", "", "In-sample optimization export (.xml)")
	forwardPath := flag.String("forward", "", "Forward optimization export (.xml)")
	topN := flag.Int("top", optjoin.DefaultTopN, "How many robust passes to show")
	asJSON := flag.Bool("json", false, "Print the full report as JSON")
	flag.Parse()

	if *backPath == "" || *forwardPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --back and --forward are required")
		flag.Usage()
		os.Exit(1)
	}

	report, err := optjoin.JoinFiles(*backPath, *forwardPath, *topN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error joining exports: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Joined %d passes, %d robust\n", report.TotalPasses, report.RobustPasses)
	if report.RobustPasses == 0 {
		fmt.Println("No parameter combination was profitable in both windows.")
		return
	}

	fmt.Printf("Forward profit p5/p50/p95: %.2f / %.2f / %.2f\n",
		report.ForwardProfitP5, report.ForwardProfitP50, report.ForwardProfitP95)
	fmt.Println()
	fmt.Println("Top robust passes (by summed profit):")
	for i, p := range report.Top {
		fmt.Printf("%2d. pass %d: IS profit %.2f (PF %.2f), forward profit %.2f (PF %.2f)\n",
			i+1, p.PassNum, p.InSample.Profit, p.InSample.ProfitFactor,
			p.Forward.Profit, p.Forward.ProfitFactor)
		names := make([]string, 0, len(p.Parameters))
		for name := range p.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("      %s = %v\n", name, p.Parameters[name])
		}
	}
}
