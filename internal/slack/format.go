package slack

import (
	"fmt"
	"math"
	"strconv"
)

// FormatNumber renders an optional number: "-" when absent, no fractional
// part when integral, otherwise the shortest exact decimal.
func FormatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	n := *v
	if !math.IsInf(n, 0) && !math.IsNaN(n) && n == math.Trunc(n) {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// StatusText renders "name : value/goal".
func StatusText(name string, value, goal *float64) string {
	return fmt.Sprintf("%s : %s/%s", name, FormatNumber(value), FormatNumber(goal))
}
