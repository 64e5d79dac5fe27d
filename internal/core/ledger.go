package core

import (
	"fmt"
	"sync"
	"time"
)

// Action is a ledger mutation. Apply interprets it without side effects.
type Action interface {
	apply(s LedgerState) (LedgerState, error)
}

type (
	AddExpense struct {
		ID          int64
		Date        Date
		Description string
		Amount      Money
		Category    Category
	}

	DeleteExpense struct {
		ID int64
	}

	AddIncome struct {
		Amount Money
	}

	SetBudget struct {
		Category Category
		Amount   Money
	}
)

// Apply returns the state that results from applying a to s. The input state
// is never modified. On error the returned state is s unchanged.
func Apply(s LedgerState, a Action) (LedgerState, error) {
	if a == nil {
		return s, fmt.Errorf("apply: nil action")
	}
	next, err := a.apply(s.Clone())
	if err != nil {
		return s, err
	}
	return next, nil
}

func (a AddExpense) apply(s LedgerState) (LedgerState, error) {
	e := Expense{
		ID:          a.ID,
		Description: a.Description,
		Amount:      a.Amount,
		Category:    a.Category,
		Date:        a.Date,
	}
	if err := e.Validate(); err != nil {
		return s, err
	}
	if s.indexOf(e.ID) >= 0 {
		return s, ErrDuplicateExpense
	}
	balance, ok := s.Balance.CheckedSub(e.Amount)
	if !ok {
		return s, ErrInvalidAmount
	}
	s.Expenses = append(s.Expenses, e)
	s.Balance = balance
	return s, nil
}

// Deleting an id that is not present is a no-op.
func (a DeleteExpense) apply(s LedgerState) (LedgerState, error) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s, nil
	}
	balance, ok := s.Balance.CheckedAdd(s.Expenses[i].Amount)
	if !ok {
		return s, ErrInvalidAmount
	}
	s.Expenses = append(s.Expenses[:i], s.Expenses[i+1:]...)
	s.Balance = balance
	return s, nil
}

func (a AddIncome) apply(s LedgerState) (LedgerState, error) {
	if a.Amount.IsNegative() || a.Amount.Cents > MaxAmount.Cents {
		return s, ErrInvalidAmount
	}
	income, ok := s.Income.CheckedAdd(a.Amount)
	if !ok {
		return s, ErrInvalidAmount
	}
	balance, ok := s.Balance.CheckedAdd(a.Amount)
	if !ok {
		return s, ErrInvalidAmount
	}
	s.Income, s.Balance = income, balance
	return s, nil
}

func (a SetBudget) apply(s LedgerState) (LedgerState, error) {
	if !a.Category.Valid() {
		return s, ErrUnknownCategory
	}
	if a.Amount.IsNegative() || a.Amount.Cents > MaxAmount.Cents {
		return s, ErrInvalidAmount
	}
	s.Budgets[a.Category] = a.Amount
	return s, nil
}

// IDSource hands out expense ids derived from the creation time in unix
// milliseconds. Ids are strictly increasing even when the clock stalls or
// steps backwards.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// Seed makes sure future ids are greater than id.
func (g *IDSource) Seed(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

func (g *IDSource) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
