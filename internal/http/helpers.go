package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// formatDollars renders m with two decimals, e.g. "$12.50" or "-$3.00".
func formatDollars(m core.Money) string {
	if m.IsNegative() {
		return "-$" + core.Money{Cents: -m.Cents}.Fixed()
	}
	return "$" + m.Fixed()
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// checked reads an HTML checkbox value.
func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// barWidth caps a budget percentage to the 0-100 range of a progress bar.
func barWidth(p float64) int {
	switch {
	case p <= 0:
		return 0
	case p >= 100:
		return 100
	case p < 2:
		return 2
	}
	return int(p + 0.5)
}
