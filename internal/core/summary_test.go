package core

import (
	"testing"
	"time"
)

func sampleState() LedgerState {
	s := NewLedgerState()
	s.Budgets[Food] = Money{Cents: 20000}
	s.Budgets[Transport] = Money{Cents: 5000}
	s.Expenses = []Expense{
		{ID: 1, Description: "old lunch", Amount: Money{Cents: 1000}, Category: Food, Date: NewDate(2026, 9, 30)},
		{ID: 2, Description: "lunch", Amount: Money{Cents: 1250}, Category: Food, Date: NewDate(2026, 10, 2)},
		{ID: 3, Description: "bus", Amount: Money{Cents: 6000}, Category: Transport, Date: NewDate(2026, 10, 18)},
		{ID: 4, Description: "last year", Amount: Money{Cents: 700}, Category: Other, Date: NewDate(2025, 10, 5)},
	}
	s.Income = Money{Cents: 100000}
	s.Balance = s.Income.Sub(s.Spent())
	return s
}

func TestCategoryTotal(t *testing.T) {
	s := sampleState()
	if got := CategoryTotal(s, Food); got.Cents != 2250 {
		t.Fatalf("food total %d", got.Cents)
	}
	if got := CategoryTotal(s, Utilities); !got.IsZero() {
		t.Fatalf("utilities total should be zero, got %d", got.Cents)
	}
}

func TestBudgetStatusZeroBudget(t *testing.T) {
	s := sampleState()
	st := BudgetStatusFor(s, Other)
	if st.Budget.Cents != 0 || st.Percentage != 0 || st.Over {
		t.Fatalf("zero budget must give zero percentage, got %+v", st)
	}
	if st.Spent.Cents != 700 {
		t.Fatalf("spent should still be reported, got %d", st.Spent.Cents)
	}

	over := BudgetStatusFor(s, Transport)
	if !over.Over || over.Percentage != 120 {
		t.Fatalf("expected transport over budget at 120%%, got %+v", over)
	}
}

func TestMonthlySummaryAt(t *testing.T) {
	s := sampleState()
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	sum := MonthlySummaryAt(s, now)

	if sum.Year != 2026 || sum.Month != 10 || sum.Count != 2 {
		t.Fatalf("unexpected period/count %+v", sum)
	}
	if sum.TotalSpent.Cents != 7250 {
		t.Fatalf("total spent %d", sum.TotalSpent.Cents)
	}
	if sum.TotalBudget.Cents != 25000 {
		t.Fatalf("total budget %d", sum.TotalBudget.Cents)
	}
	if sum.Remaining.Cents != 17750 {
		t.Fatalf("remaining %d", sum.Remaining.Cents)
	}

	empty := MonthlySummaryAt(NewLedgerState(), now)
	if empty.Remaining.Cents != 0 || empty.Count != 0 {
		t.Fatalf("empty ledger summary %+v", empty)
	}
}

func TestMonthlySummaryRemainingCanBeNegative(t *testing.T) {
	s := NewLedgerState()
	s.Expenses = []Expense{{ID: 1, Description: "a", Amount: Money{Cents: 900}, Category: Food, Date: NewDate(2026, 10, 1)}}
	sum := MonthlySummaryAt(s, time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC))
	if sum.Remaining.Cents != -900 {
		t.Fatalf("expected -9.00 remaining, got %s", sum.Remaining.Fixed())
	}
}

func TestBuildDashboard(t *testing.T) {
	s := sampleState()
	d := BuildDashboard(s, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))

	if len(d.Budgets) != 5 || d.Budgets[0].Category != Food || d.Budgets[4].Category != Other {
		t.Fatalf("budgets not in category order: %+v", d.Budgets)
	}
	if d.Expenses[0].ID != 4 || d.Expenses[3].ID != 1 {
		t.Fatalf("expenses should be newest first")
	}
	if s.Expenses[0].ID != 1 {
		t.Fatalf("dashboard must not reorder the ledger")
	}
	if d.Balance != s.Balance || d.Income != s.Income {
		t.Fatalf("balance/income not copied")
	}
}
