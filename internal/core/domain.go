package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Fixed expense categories, in display order.
const (
	Food          Category = "food"
	Transport     Category = "transport"
	Utilities     Category = "utilities"
	Entertainment Category = "entertainment"
	Other         Category = "other"
)

type (
	Category string

	// Date is a calendar day; the time-of-day part is always midnight.
	Date struct {
		time.Time
	}

	Expense struct {
		ID          int64
		Description string
		Amount      Money
		Category    Category
		Date        Date
	}

	// BudgetSet holds the monthly limit per category. Missing entries read as zero.
	BudgetSet map[Category]Money

	// LedgerState is the whole persisted ledger for the single user.
	LedgerState struct {
		Income   Money
		Balance  Money
		Expenses []Expense
		Budgets  BudgetSet
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidDescription = errors.New("description is not valid UTF-8")
	ErrDuplicateExpense   = errors.New("duplicate expense id")
	ErrBalanceMismatch    = errors.New("balance does not match income minus expenses")
)

var categories = []Category{Food, Transport, Utilities, Entertainment, Other}

var categoryIcons = map[Category]string{
	Food:          "🍔",
	Transport:     "🚗",
	Utilities:     "🏠",
	Entertainment: "🎮",
	Other:         "📦",
}

// Categories returns the fixed category list in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory matches s case-insensitively against the fixed categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryIcons[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// Label is the capitalized name shown in forms.
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (c Category) Icon() string {
	return categoryIcons[c]
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// SameMonth reports whether d falls in the calendar month and year of t.
func (d Date) SameMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Month() == t.Month()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if !utf8.ValidString(e.Description) {
		return ErrInvalidDescription
	}
	if e.Amount.IsNegative() || e.Amount.Cents > MaxAmount.Cents {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	return nil
}

// NewLedgerState returns the empty ledger with zero budgets for every category.
func NewLedgerState() LedgerState {
	return LedgerState{Budgets: NewBudgetSet()}
}

func NewBudgetSet() BudgetSet {
	b := make(BudgetSet, len(categories))
	for _, c := range categories {
		b[c] = Money{}
	}
	return b
}

// Total sums the limits of all categories.
func (b BudgetSet) Total() Money {
	var total Money
	for _, c := range categories {
		total = total.Add(b[c])
	}
	return total
}

func (b BudgetSet) clone() BudgetSet {
	out := NewBudgetSet()
	for c, m := range b {
		out[c] = m
	}
	return out
}

// Clone returns a deep copy safe to hand out to callers.
func (s LedgerState) Clone() LedgerState {
	out := LedgerState{
		Income:  s.Income,
		Balance: s.Balance,
		Budgets: s.Budgets.clone(),
	}
	if len(s.Expenses) > 0 {
		out.Expenses = append([]Expense(nil), s.Expenses...)
	}
	return out
}

// Spent sums the amounts of all active expenses.
func (s LedgerState) Spent() Money {
	var total Money
	for _, e := range s.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Equal reports whether both states hold the same ledger.
func (s LedgerState) Equal(o LedgerState) bool {
	if s.Income != o.Income || s.Balance != o.Balance || len(s.Expenses) != len(o.Expenses) {
		return false
	}
	for i, e := range s.Expenses {
		f := o.Expenses[i]
		if e.ID != f.ID || e.Description != f.Description || e.Amount != f.Amount ||
			e.Category != f.Category || !e.Date.Equal(f.Date.Time) {
			return false
		}
	}
	for _, c := range categories {
		if s.Budgets[c] != o.Budgets[c] {
			return false
		}
	}
	return true
}

// Check verifies balance == income - sum(expenses).
func (s LedgerState) Check() error {
	if s.Balance != s.Income.Sub(s.Spent()) {
		return ErrBalanceMismatch
	}
	return nil
}

// MaxExpenseID returns the largest stored id, or 0 for an empty ledger.
func (s LedgerState) MaxExpenseID() int64 {
	var maxID int64
	for _, e := range s.Expenses {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	return maxID
}

func (s LedgerState) indexOf(id int64) int {
	for i, e := range s.Expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the expense with the given id.
func (s LedgerState) Find(id int64) (Expense, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Expenses[i], true
	}
	return Expense{}, false
}
