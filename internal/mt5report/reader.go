// Package mt5report parses the HTML artifacts the strategy tester produces:
// the deals table and the labeled summary metrics. The tester's output is
// loosely structured, so parsing is pattern-based and recovers locally from
// malformed cells instead of failing the whole report.
package mt5report

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadReport loads a report file and decodes it to UTF-8. Tester reports
// are typically UTF-16LE with a BOM; older exports are plain UTF-8.
func ReadReport(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read report %s: %w", path, err)
	}
	return decode(raw), nil
}

func decode(raw []byte) string {
	if isUTF16(raw) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(dec, raw)
		if err == nil {
			return string(decoded)
		}
	}

	return string(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))
}

// isUTF16 detects UTF-16 content by BOM, falling back to a NUL-byte
// heuristic for BOM-less exports (ASCII-heavy UTF-16 is half NUL bytes).
func isUTF16(raw []byte) bool {
	if len(raw) >= 2 {
		if (raw[0] == 0xFF && raw[1] == 0xFE) || (raw[0] == 0xFE && raw[1] == 0xFF) {
			return true
		}
	}

	limit := len(raw)
	if limit > 1024 {
		limit = 1024
	}
	nuls := 0
	for _, b := range raw[:limit] {
		if b == 0 {
			nuls++
		}
	}
	return limit > 0 && nuls > limit/4
}
