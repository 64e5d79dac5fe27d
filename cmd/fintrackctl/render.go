package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/core"
)

const barCells = 20

func dollars(m core.Money) string {
	if m.IsNegative() {
		return "-$" + core.Money{Cents: -m.Cents}.Fixed()
	}
	return "$" + m.Fixed()
}

// renderSummary draws the dashboard: balance boxes, budget bars and the
// latest expenses.
func renderSummary(d core.Dashboard, recent int) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("fintrack · %04d-%02d", d.Monthly.Year, d.Monthly.Month)))
	b.WriteString("\n")

	balance := dollars(d.Balance)
	if d.Balance.IsNegative() {
		balance = ErrorStyle.Render(balance)
	}
	remaining := dollars(d.Monthly.Remaining)
	if d.Monthly.Remaining.IsNegative() {
		remaining = ErrorStyle.Render(remaining)
	}
	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render("Current Balance\n"+BoldStyle.Render(balance)),
		BoxStyle.Render("Total Income\n"+BoldStyle.Render(dollars(d.Income))),
		BoxStyle.Render(fmt.Sprintf("Monthly Summary\nSpent %s\nBudget %s\nRemaining %s",
			dollars(d.Monthly.TotalSpent), dollars(d.Monthly.TotalBudget), remaining)),
	)
	b.WriteString(boxes)
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("Budget Overview"))
	b.WriteString("\n")
	for _, st := range d.Budgets {
		b.WriteString(fmt.Sprintf("%s %-14s %s %s / %s\n",
			st.Category.Icon(), st.Category.Label(), bar(st), dollars(st.Spent), dollars(st.Budget)))
	}
	b.WriteString("\n")

	b.WriteString(HeaderStyle.Render("Recent Expenses"))
	b.WriteString("\n")
	if len(d.Expenses) == 0 {
		b.WriteString(SubtleStyle.Render("No expenses added yet"))
		b.WriteString("\n")
		return b.String()
	}
	for i, e := range d.Expenses {
		if recent > 0 && i == recent {
			b.WriteString(SubtleStyle.Render(fmt.Sprintf("… %d more", len(d.Expenses)-recent)))
			b.WriteString("\n")
			break
		}
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.String()
		}
		b.WriteString(fmt.Sprintf("%-14d %-10s %s %-30s %10s\n",
			e.ID, date, e.Category.Icon(), e.Description, dollars(e.Amount)))
	}
	return b.String()
}

// bar renders a fixed-width progress bar, red when over budget.
func bar(st core.BudgetStatus) string {
	filled := int(st.Percentage/100*barCells + 0.5)
	if filled > barCells {
		filled = barCells
	}
	if filled < 0 {
		filled = 0
	}
	s := strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
	if st.Over {
		return ErrorStyle.Render(s)
	}
	return SuccessStyle.Render(s)
}
