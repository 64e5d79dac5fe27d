package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// EventWriter appends one row per ledger event to an external journal.
	EventWriter interface {
		AppendEvent(ctx context.Context, ev core.LedgerEvent) (rowRef string, err error)
	}
)

// Header is the first row of the journal sheet.
var Header = []string{"Timestamp", "Event", "Expense ID", "Date", "Description", "Category", "Amount"}

// Row renders ev in Header order. Added expenses are written negative.
func Row(ev core.LedgerEvent) []any {
	amount := ev.Amount.Float()
	if ev.Kind == core.EventExpenseAdded {
		amount = -amount
	}
	var id any = ""
	if ev.ExpenseID != 0 {
		id = ev.ExpenseID
	}
	date := ""
	if !ev.Date.IsZero() {
		date = ev.Date.String()
	}
	return []any{
		ev.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		string(ev.Kind),
		id,
		date,
		ev.Description,
		ev.Category.Label(),
		amount,
	}
}
