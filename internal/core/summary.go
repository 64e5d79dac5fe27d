package core

import (
	"sort"
	"time"
)

// BudgetStatus compares spend in one category with its limit.
type BudgetStatus struct {
	Category   Category
	Spent      Money
	Budget     Money
	Percentage float64 // 0 when Budget is zero
	Over       bool
}

// MonthlySummary covers expenses dated in one calendar month. TotalBudget is
// the sum of all category limits; budgets carry no date.
type MonthlySummary struct {
	Year        int
	Month       int
	Count       int
	TotalSpent  Money
	TotalBudget Money
	Remaining   Money
}

// Dashboard is everything the summary views render. It depends on the clock
// through the monthly summary, so build it per request.
type Dashboard struct {
	Income   Money
	Balance  Money
	Monthly  MonthlySummary
	Budgets  []BudgetStatus
	Expenses []Expense // newest first
}

// CategoryTotal sums every expense in category c, regardless of date.
func CategoryTotal(s LedgerState, c Category) Money {
	var total Money
	for _, e := range s.Expenses {
		if e.Category == c {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func BudgetStatusFor(s LedgerState, c Category) BudgetStatus {
	spent := CategoryTotal(s, c)
	budget := s.Budgets[c]
	st := BudgetStatus{Category: c, Spent: spent, Budget: budget}
	if budget.Cents > 0 {
		st.Percentage = float64(spent.Cents) / float64(budget.Cents) * 100
		st.Over = spent.Cents > budget.Cents
	}
	return st
}

// MonthlySummaryAt filters expenses to the calendar month of now.
func MonthlySummaryAt(s LedgerState, now time.Time) MonthlySummary {
	sum := MonthlySummary{
		Year:        now.Year(),
		Month:       int(now.Month()),
		TotalBudget: s.Budgets.Total(),
	}
	for _, e := range s.Expenses {
		if !e.Date.SameMonth(now) {
			continue
		}
		sum.Count++
		sum.TotalSpent = sum.TotalSpent.Add(e.Amount)
	}
	sum.Remaining = sum.TotalBudget.Sub(sum.TotalSpent)
	return sum
}

func BuildDashboard(s LedgerState, now time.Time) Dashboard {
	d := Dashboard{
		Income:  s.Income,
		Balance: s.Balance,
		Monthly: MonthlySummaryAt(s, now),
	}
	for _, c := range categories {
		d.Budgets = append(d.Budgets, BudgetStatusFor(s, c))
	}
	d.Expenses = append([]Expense(nil), s.Expenses...)
	sort.SliceStable(d.Expenses, func(i, j int) bool {
		return d.Expenses[i].ID > d.Expenses[j].ID
	})
	return d
}
