// Package report renders ledger data for download: a CSV of expenses and a
// PNG chart of category spend against budget.
package report

import (
	"fmt"
	"io"

	"fintrack/internal/core"

	"github.com/gocarina/gocsv"
)

// ExpenseRow is the CSV shape of one expense.
type ExpenseRow struct {
	ID          int64  `csv:"id"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
	Amount      string `csv:"amount"`
}

// ExpenseRows converts expenses to rows, keeping their order.
func ExpenseRows(expenses []core.Expense) []ExpenseRow {
	rows := make([]ExpenseRow, 0, len(expenses))
	for _, e := range expenses {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.String()
		}
		rows = append(rows, ExpenseRow{
			ID:          e.ID,
			Date:        date,
			Description: e.Description,
			Category:    string(e.Category),
			Amount:      e.Amount.Fixed(),
		})
	}
	return rows
}

// WriteExpensesCSV writes a header line and one line per expense to w.
func WriteExpensesCSV(w io.Writer, expenses []core.Expense) error {
	rows := ExpenseRows(expenses)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("error writing expenses CSV: %w", err)
	}
	return nil
}
