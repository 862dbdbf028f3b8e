// Package tester drives the MT5 strategy tester: it generates the INI files
// the terminal consumes and runs terminal64 headless against them.
package tester

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InputParam is one EA input in the [TesterInputs] section. The tester's
// wire form is name=value||min||step||max||Y|N.
type InputParam struct {
	Name     string
	Value    any
	Min      float64
	Step     float64
	Max      float64
	Optimize bool
}

func (p InputParam) iniLine() string {
	flag := "N"
	if p.Optimize {
		flag = "Y"
	}
	return fmt.Sprintf("%s=%s||%s||%s||%s||%s",
		p.Name, formatValue(p.Value),
		formatValue(p.Min), formatValue(p.Step), formatValue(p.Max), flag)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Config mirrors the strategy tester's [Tester] section.
type Config struct {
	Expert                string
	Symbol                string
	Period                string
	Model                 int // 0=every tick, 1=OHLC, 2=open price
	Deposit               int
	Currency              string
	Leverage              int
	ExecutionMode         int // latency in ms
	FromDate              string
	ToDate                string
	ForwardMode           int // 0=no, 1=half, 2=third, 3=quarter, 4=custom
	ForwardDate           string
	Optimization          int // 0=disabled, 1=slow, 2=genetic
	OptimizationCriterion int
	ReportName            string
	ReplaceReport         bool
	ShutdownTerminal      bool
	Visual                bool
	UseLocal              bool
	Inputs                []InputParam
}

// WriteINI renders cfg and writes it to path, creating parent directories.
func WriteINI(cfg Config, path string) error {
	var b strings.Builder
	b.WriteString("[Tester]\n")
	fmt.Fprintf(&b, "Expert=%s\n", cfg.Expert)
	fmt.Fprintf(&b, "Symbol=%s\n", cfg.Symbol)
	fmt.Fprintf(&b, "Period=%s\n", cfg.Period)
	fmt.Fprintf(&b, "Optimization=%d\n", cfg.Optimization)
	fmt.Fprintf(&b, "Model=%d\n", cfg.Model)
	fmt.Fprintf(&b, "FromDate=%s\n", cfg.FromDate)
	fmt.Fprintf(&b, "ToDate=%s\n", cfg.ToDate)
	fmt.Fprintf(&b, "ForwardMode=%d\n", cfg.ForwardMode)
	fmt.Fprintf(&b, "Deposit=%d\n", cfg.Deposit)
	fmt.Fprintf(&b, "Currency=%s\n", cfg.Currency)
	fmt.Fprintf(&b, "Leverage=%d\n", cfg.Leverage)
	fmt.Fprintf(&b, "ExecutionMode=%d\n", cfg.ExecutionMode)

	if cfg.ForwardMode == 4 && cfg.ForwardDate != "" {
		fmt.Fprintf(&b, "ForwardDate=%s\n", cfg.ForwardDate)
	}
	if cfg.Optimization > 0 {
		fmt.Fprintf(&b, "OptimizationCriterion=%d\n", cfg.OptimizationCriterion)
	}
	if cfg.ReportName != "" {
		fmt.Fprintf(&b, "Report=%s\n", cfg.ReportName)
		replace := 0
		if cfg.ReplaceReport {
			replace = 1
		}
		fmt.Fprintf(&b, "ReplaceReport=%d\n", replace)
	}
	if cfg.UseLocal {
		b.WriteString("UseLocal=1\n")
	}
	visual := 0
	if cfg.Visual {
		visual = 1
	}
	fmt.Fprintf(&b, "Visual=%d\n", visual)
	if cfg.ShutdownTerminal {
		b.WriteString("ShutdownTerminal=1\n")
	}

	if len(cfg.Inputs) > 0 {
		b.WriteString("\n[TesterInputs]\n")
		for _, inp := range cfg.Inputs {
			b.WriteString(inp.iniLine())
			b.WriteByte('\n')
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("tester: create ini dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("tester: write ini: %w", err)
	}
	return nil
}
