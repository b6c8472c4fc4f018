// Package ui holds the small console-formatting helpers shared by the
// progress reporter and the result output.
package ui

import (
	"fmt"
	"strings"
	"time"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

// FormatNumber adds commas to large numbers.
func FormatNumber(n uint64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	s := fmt.Sprintf("%d", n)
	result := make([]byte, 0, len(s)+(len(s)-1)/3)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

// FormatRate formats a keys-per-second rate nicely.
func FormatRate(rate float64) string {
	if rate >= 1000000 {
		return fmt.Sprintf("%.1fM keys/s", rate/1000000)
	}
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK keys/s", rate/1000)
	}
	return fmt.Sprintf("%.0f keys/s", rate)
}

// FormatDuration formats duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}

// HexSegment renders one 8-byte segment with the low and high halves
// separated, e.g. "12 34 56 78 | 00 00 00 00".
func HexSegment(seg []byte) string {
	var b strings.Builder
	for i, v := range seg {
		if i == 4 {
			b.WriteString("| ")
		}
		fmt.Fprintf(&b, "%02x", v)
		if i != len(seg)-1 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
