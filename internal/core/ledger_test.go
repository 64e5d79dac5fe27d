package core

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func mustApply(t *testing.T, s LedgerState, a Action) LedgerState {
	t.Helper()
	next, err := Apply(s, a)
	if err != nil {
		t.Fatalf("apply %T: %v", a, err)
	}
	return next
}

func TestLedgerScenarios(t *testing.T) {
	today := NewDate(2026, 10, 18)

	s := NewLedgerState()
	s = mustApply(t, s, AddIncome{Amount: Money{Cents: 50000}})
	if s.Income.Cents != 50000 || s.Balance.Cents != 50000 {
		t.Fatalf("after income: income=%v balance=%v", s.Income, s.Balance)
	}

	s = mustApply(t, s, AddExpense{ID: 1, Date: today, Description: "Lunch", Amount: Money{Cents: 1250}, Category: Food})
	if s.Balance.Cents != 48750 {
		t.Fatalf("expected balance 487.50, got %s", s.Balance.Fixed())
	}
	if len(s.Expenses) != 1 || s.Expenses[0].Date != today {
		t.Fatalf("expected one expense dated today, got %+v", s.Expenses)
	}

	s = mustApply(t, s, DeleteExpense{ID: 1})
	if s.Balance.Cents != 50000 || len(s.Expenses) != 0 {
		t.Fatalf("after delete: balance=%s expenses=%d", s.Balance.Fixed(), len(s.Expenses))
	}
}

func TestBudgetScenario(t *testing.T) {
	s := NewLedgerState()
	s = mustApply(t, s, SetBudget{Category: Food, Amount: Money{Cents: 10000}})
	s = mustApply(t, s, AddExpense{ID: 7, Date: NewDate(2026, 10, 1), Description: "Groceries", Amount: Money{Cents: 5000}, Category: Food})

	st := BudgetStatusFor(s, Food)
	if st.Spent.Cents != 5000 || st.Budget.Cents != 10000 || st.Percentage != 50 {
		t.Fatalf("unexpected status %+v", st)
	}
	if s.Budgets[Transport].Cents != 0 {
		t.Fatalf("other categories must be unaffected")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := NewLedgerState()
	s = mustApply(t, s, AddExpense{ID: 1, Description: "a", Amount: Money{Cents: 100}, Category: Food})
	before := s.Clone()

	_ = mustApply(t, s, DeleteExpense{ID: 1})
	_ = mustApply(t, s, SetBudget{Category: Food, Amount: Money{Cents: 1}})

	if len(s.Expenses) != len(before.Expenses) || s.Budgets[Food] != before.Budgets[Food] || s.Balance != before.Balance {
		t.Fatalf("input state was modified")
	}
}

func TestApplyRejectsInvalidActions(t *testing.T) {
	s := NewLedgerState()
	s = mustApply(t, s, AddExpense{ID: 1, Description: "a", Amount: Money{Cents: 100}, Category: Food})

	cases := []struct {
		a   Action
		err error
	}{
		{AddExpense{ID: 2, Description: "a", Amount: Money{Cents: -1}, Category: Food}, ErrInvalidAmount},
		{AddExpense{ID: 2, Description: "a", Amount: Money{Cents: 1}, Category: "rent"}, ErrUnknownCategory},
		{AddExpense{ID: 2, Description: "", Amount: Money{Cents: 1}, Category: Food}, ErrEmptyDescription},
		{AddExpense{ID: 1, Description: "dup", Amount: Money{Cents: 1}, Category: Food}, ErrDuplicateExpense},
		{AddIncome{Amount: Money{Cents: -5}}, ErrInvalidAmount},
		{SetBudget{Category: "rent", Amount: Money{Cents: 5}}, ErrUnknownCategory},
		{SetBudget{Category: Food, Amount: Money{Cents: -5}}, ErrInvalidAmount},
		{AddIncome{Amount: Money{Cents: MaxAmount.Cents + 1}}, ErrInvalidAmount},
		{SetBudget{Category: Food, Amount: Money{Cents: MaxAmount.Cents + 1}}, ErrInvalidAmount},
		{AddExpense{ID: 2, Description: "caf\xe9", Amount: Money{Cents: 1}, Category: Food}, ErrInvalidDescription},
	}
	for i, tc := range cases {
		next, err := Apply(s, tc.a)
		if err != tc.err {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
		if next.Balance != s.Balance || len(next.Expenses) != len(s.Expenses) {
			t.Fatalf("case %d changed state on error", i)
		}
	}
}

func TestApplyRejectsOverflow(t *testing.T) {
	full := NewLedgerState()
	full.Income = Money{Cents: math.MaxInt64}
	full.Balance = Money{Cents: math.MaxInt64}

	if _, err := Apply(full, AddIncome{Amount: Money{Cents: 1}}); err != ErrInvalidAmount {
		t.Fatalf("income overflow: expected ErrInvalidAmount, got %v", err)
	}

	broke := NewLedgerState()
	broke.Balance = Money{Cents: math.MinInt64 + 5}
	next, err := Apply(broke, AddExpense{ID: 1, Description: "a", Amount: Money{Cents: 10}, Category: Food})
	if err != ErrInvalidAmount {
		t.Fatalf("balance overflow: expected ErrInvalidAmount, got %v", err)
	}
	if len(next.Expenses) != 0 || next.Balance != broke.Balance {
		t.Fatal("state changed on overflow")
	}

	s := NewLedgerState()
	for i := 0; i < 3; i++ {
		s = mustApply(t, s, AddIncome{Amount: MaxAmount})
	}
	if s.Income.Cents != 3*MaxAmount.Cents || s.Check() != nil {
		t.Fatalf("unexpected income %d", s.Income.Cents)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewLedgerState()
	s = mustApply(t, s, AddIncome{Amount: Money{Cents: 1000}})
	s = mustApply(t, s, AddExpense{ID: 1, Description: "a", Amount: Money{Cents: 300}, Category: Other})

	once := mustApply(t, s, DeleteExpense{ID: 1})
	twice := mustApply(t, once, DeleteExpense{ID: 1})
	if once.Balance != twice.Balance || len(once.Expenses) != len(twice.Expenses) {
		t.Fatalf("second delete changed state: %+v vs %+v", once, twice)
	}
	missing := mustApply(t, s, DeleteExpense{ID: 99})
	if missing.Balance != s.Balance || len(missing.Expenses) != 1 {
		t.Fatalf("deleting an absent id must be a no-op")
	}
}

func TestBalanceInvariantUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cats := Categories()
	s := NewLedgerState()
	var nextID int64

	for i := 0; i < 2000; i++ {
		var a Action
		switch rng.Intn(3) {
		case 0:
			nextID++
			a = AddExpense{
				ID:          nextID,
				Description: "x",
				Amount:      Money{Cents: rng.Int63n(100000)},
				Category:    cats[rng.Intn(len(cats))],
			}
		case 1:
			var id int64
			if len(s.Expenses) > 0 && rng.Intn(4) > 0 {
				id = s.Expenses[rng.Intn(len(s.Expenses))].ID
			} else {
				id = rng.Int63n(nextID + 2)
			}
			a = DeleteExpense{ID: id}
		default:
			a = AddIncome{Amount: Money{Cents: rng.Int63n(50000)}}
		}
		s = mustApply(t, s, a)
		if err := s.Check(); err != nil {
			t.Fatalf("step %d (%T): %v", i, a, err)
		}
	}
}

func TestIDSourceMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewIDSource(func() time.Time { return fixed })

	a, b, c := g.Next(), g.Next(), g.Next()
	if a != fixed.UnixMilli() || b != a+1 || c != b+1 {
		t.Fatalf("expected consecutive ids, got %d %d %d", a, b, c)
	}

	g.Seed(fixed.UnixMilli() + 500)
	if got := g.Next(); got != fixed.UnixMilli()+501 {
		t.Fatalf("seed not honoured, got %d", got)
	}
}
