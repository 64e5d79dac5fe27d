package core

import "time"

const (
	EventExpenseAdded   EventKind = "expense.added"
	EventExpenseDeleted EventKind = "expense.deleted"
	EventIncomeAdded    EventKind = "income.added"
	EventBudgetSet      EventKind = "budget.set"
)

type EventKind string

// LedgerEvent describes one committed mutation. Fields that do not apply to
// the kind are left zero.
type LedgerEvent struct {
	Kind        EventKind
	ExpenseID   int64
	Description string
	Category    Category
	Amount      Money
	Date        Date
	Timestamp   time.Time
}

// EventFor builds the event for an action that was just committed.
func EventFor(a Action, removed *Expense, at time.Time) LedgerEvent {
	ev := LedgerEvent{Timestamp: at}
	switch a := a.(type) {
	case AddExpense:
		ev.Kind = EventExpenseAdded
		ev.ExpenseID = a.ID
		ev.Description = a.Description
		ev.Category = a.Category
		ev.Amount = a.Amount
		ev.Date = a.Date
	case DeleteExpense:
		ev.Kind = EventExpenseDeleted
		ev.ExpenseID = a.ID
		if removed != nil {
			ev.Description = removed.Description
			ev.Category = removed.Category
			ev.Amount = removed.Amount
			ev.Date = removed.Date
		}
	case AddIncome:
		ev.Kind = EventIncomeAdded
		ev.Amount = a.Amount
	case SetBudget:
		ev.Kind = EventBudgetSet
		ev.Category = a.Category
		ev.Amount = a.Amount
	}
	return ev
}
