package http

import (
	"fmt"
	"html/template"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/session"
)

var templateFuncs = template.FuncMap{
	"dollars": formatDollars,
}

type categoryOption struct {
	Value string
	Label string
	Icon  string
}

type expenseView struct {
	ID          int64
	Description string
	Category    string
	Icon        string
	Amount      string
	Date        string
}

type budgetView struct {
	Category   string
	Label      string
	Icon       string
	Spent      string
	Budget     string
	Percentage string
	Width      int
	Over       bool
}

type summaryView struct {
	Period     string
	Year       int
	Month      int
	Prev       MonthParams
	Next       MonthParams
	Revision   uint64
	Balance    string
	Income     string
	Spent      string
	Budget     string
	Remaining  string
	Overspent  bool
	InDebt     bool
	Count      int
	Budgets    []budgetView
	Expenses   []expenseView
	Categories []categoryOption
}

type signinView struct {
	Email      string
	Password   string
	RememberMe bool
	Error      string
}

type dashboardView struct {
	User    string
	Summary summaryView
}

func categoryOptions() []categoryOption {
	cats := core.Categories()
	out := make([]categoryOption, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryOption{Value: string(c), Label: c.Label(), Icon: c.Icon()})
	}
	return out
}

func newSummaryView(d core.Dashboard, revision uint64) summaryView {
	v := summaryView{
		Period:     fmt.Sprintf("%04d-%02d", d.Monthly.Year, d.Monthly.Month),
		Year:       d.Monthly.Year,
		Month:      d.Monthly.Month,
		Revision:   revision,
		Balance:    formatDollars(d.Balance),
		Income:     formatDollars(d.Income),
		Spent:      formatDollars(d.Monthly.TotalSpent),
		Budget:     formatDollars(d.Monthly.TotalBudget),
		Remaining:  formatDollars(d.Monthly.Remaining),
		Overspent:  d.Monthly.Remaining.IsNegative(),
		InDebt:     d.Balance.IsNegative(),
		Count:      d.Monthly.Count,
		Categories: categoryOptions(),
	}
	v.Prev, v.Next = adjacentMonths(d.Monthly.Year, d.Monthly.Month)

	for _, b := range d.Budgets {
		v.Budgets = append(v.Budgets, budgetView{
			Category:   string(b.Category),
			Label:      b.Category.Label(),
			Icon:       b.Category.Icon(),
			Spent:      formatDollars(b.Spent),
			Budget:     formatDollars(b.Budget),
			Percentage: strconv.FormatFloat(b.Percentage, 'f', 0, 64),
			Width:      barWidth(b.Percentage),
			Over:       b.Over,
		})
	}
	for _, e := range d.Expenses {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.String()
		}
		v.Expenses = append(v.Expenses, expenseView{
			ID:          e.ID,
			Description: e.Description,
			Category:    e.Category.Label(),
			Icon:        e.Category.Icon(),
			Amount:      formatDollars(e.Amount),
			Date:        date,
		})
	}
	return v
}

func newSigninView(f session.Form, errMsg string) signinView {
	return signinView{
		Email:      f.Email,
		Password:   f.Password,
		RememberMe: f.RememberMe,
		Error:      errMsg,
	}
}

// adjacentMonths returns the months before and after year/month.
func adjacentMonths(year, month int) (prev, next MonthParams) {
	prev = MonthParams{Year: year, Month: month - 1}
	if prev.Month < 1 {
		prev = MonthParams{Year: year - 1, Month: 12}
	}
	next = MonthParams{Year: year, Month: month + 1}
	if next.Month > 12 {
		next = MonthParams{Year: year + 1, Month: 1}
	}
	return prev, next
}
