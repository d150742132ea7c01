// internal/market/format.go
package market

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel marks a value whose enrichment was unavailable. Distinct
// from zero: "no data" never renders as "0".
const Sentinel = "N/A"

// FormatMagnitude renders a numeric value with a K/M suffix:
// values >= 1,000,000 as "1.5M", values >= 1,000 as "1.0K", smaller
// values with one decimal place. Anything non-numeric renders as the
// sentinel.
func FormatMagnitude(value any) string {
	f, ok := toFloat(value)
	if !ok {
		return Sentinel
	}
	switch {
	case f >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000)
	case f >= 1_000:
		return fmt.Sprintf("%.1fK", f/1_000)
	default:
		return fmt.Sprintf("%.1f", f)
	}
}

// TopHolderShare sums the share of every returned holder and renders
// it as a percentage rounded to two decimals, e.g. "42.0%". An empty
// or unparseable holder set yields the sentinel.
func TopHolderShare(holders []Holder) string {
	if len(holders) == 0 {
		return Sentinel
	}
	total := 0.0
	for _, h := range holders {
		f, ok := toFloat(h.Percentage)
		if !ok {
			return Sentinel
		}
		total += f
	}
	pct := math.Round(total*100*100) / 100
	return formatFraction(pct) + "%"
}

// formatFraction renders a float with its shortest decimal form but
// never without a decimal part: 15 -> "15.0", 15.25 -> "15.25".
func formatFraction(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case Scalar:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
