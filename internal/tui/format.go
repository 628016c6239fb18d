package tui

import (
	"fmt"
	"math"
	"time"
)

var siSuffixes = []string{"", "K", "M", "G", "T", "P", "E"}

// formatSI renders v with a 1000-based suffix, e.g. 1.52G.
func formatSI(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	i := 0
	abs := math.Abs(v)
	for abs >= 1000 && i < len(siSuffixes)-1 {
		abs /= 1000
		v /= 1000
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f%s", v, siSuffixes[i])
}

func formatTHs(v float64) string {
	return fmt.Sprintf("%.3f TH/s", v)
}

// formatOdds renders a probability percentage; tiny values keep their
// significant digits instead of collapsing to 0.00%.
func formatOdds(pct float64) string {
	switch {
	case pct == 0:
		return "0%"
	case pct < 0.01:
		return fmt.Sprintf("%.6f%%", pct)
	default:
		return fmt.Sprintf("%.2f%%", pct)
	}
}

// shareClock renders a unix share timestamp as local wall-clock time.
func shareClock(ts int64, loc *time.Location) string {
	if ts <= 0 {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(ts, 0).In(loc).Format("15:04:05")
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
