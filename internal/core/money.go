// Package core holds the ledger domain: money, expenses, budgets, the pure
// state transitions and the aggregations derived from them.
//
// This file contains money parsing and the decimal text form used by the
// snapshot keys.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. Balance may go negative; inputs may not.
type Money struct {
	Cents int64
}

// MaxAmount caps a single user-entered amount at one trillion dollars.
var MaxAmount = Money{Cents: 100_000_000_000_000}

var (
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount converts user input such as "12.50", "12,5" or " 7 " to Money.
//
// Both dot and comma are accepted as decimal separator and the value is
// rounded half-up to cents. Negative values and anything that is not a plain
// decimal number are rejected with ErrInvalidAmount, as is anything above
// MaxAmount. Zero is allowed.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	if roundCents(d).GreaterThan(decimal.NewFromInt(MaxAmount.Cents)) {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// ParseDecimalText reads the snapshot text form. Unlike ParseAmount it
// accepts negative values, since a balance can be below zero.
func ParseDecimalText(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// FromDecimal rounds d half-up to cents. Values that do not fit in int64
// cents are rejected with ErrInvalidAmount.
func FromDecimal(d decimal.Decimal) (Money, error) {
	c := roundCents(d)
	if c.LessThan(minCents) || c.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: c.IntPart()}, nil
}

func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Round(0)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String returns the shortest decimal text, e.g. "487.5", "500", "-12.25".
func (m Money) String() string {
	return m.Decimal().String()
}

// Fixed returns the amount with exactly two decimals, e.g. "487.50".
func (m Money) Fixed() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the amount for charting and percentages only.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// CheckedAdd is Add that reports false instead of wrapping around.
func (m Money) CheckedAdd(o Money) (Money, bool) {
	if (o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents) ||
		(o.Cents < 0 && m.Cents < math.MinInt64-o.Cents) {
		return Money{}, false
	}
	return Money{Cents: m.Cents + o.Cents}, true
}

// CheckedSub is Sub that reports false instead of wrapping around.
func (m Money) CheckedSub(o Money) (Money, bool) {
	if (o.Cents < 0 && m.Cents > math.MaxInt64+o.Cents) ||
		(o.Cents > 0 && m.Cents < math.MinInt64+o.Cents) {
		return Money{}, false
	}
	return Money{Cents: m.Cents - o.Cents}, true
}

func (m Money) IsNegative() bool { return m.Cents < 0 }

func (m Money) IsZero() bool { return m.Cents == 0 }
