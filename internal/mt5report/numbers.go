package mt5report

import (
	"regexp"
	"strconv"
	"strings"
)

var currencyChars = regexp.MustCompile(`[$€£¥%,]`)

// parseFloat parses a tester-formatted number. The tester uses spaces as
// thousand separators ("5 257.50") and sometimes appends a parenthetical
// ("7 455.84 (132.10%)"). Unparsable values become 0, not errors.
func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if i := strings.Index(value, "("); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}

	value = currencyChars.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, " ", "")

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseInt parses an integer cell, tolerating float formatting.
func parseInt(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return int64(parseFloat(value))
}
