package http

import (
	"strconv"
	"testing"

	"fintrack/internal/core"
)

func strconvID(id int64) string { return strconv.FormatInt(id, 10) }

func TestFormatDollars(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{1250, "$12.50"},
		{-300, "-$3.00"},
		{100000, "$1000.00"},
	}
	for _, tt := range tests {
		if got := formatDollars(core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("formatDollars(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		pct  float64
		want int
	}{
		{0, 0},
		{1, 2},
		{49.6, 50},
		{125, 100},
	}
	for _, tt := range tests {
		if got := barWidth(tt.pct); got != tt.want {
			t.Errorf("barWidth(%v) = %d, want %d", tt.pct, got, tt.want)
		}
	}
}

func TestAdjacentMonths(t *testing.T) {
	prev, next := adjacentMonths(2026, 1)
	if prev != (MonthParams{Year: 2025, Month: 12}) || next != (MonthParams{Year: 2026, Month: 2}) {
		t.Fatalf("january: prev=%v next=%v", prev, next)
	}
	prev, next = adjacentMonths(2026, 12)
	if prev != (MonthParams{Year: 2026, Month: 11}) || next != (MonthParams{Year: 2027, Month: 1}) {
		t.Fatalf("december: prev=%v next=%v", prev, next)
	}
}
