package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Date layouts accepted when reading expenses. The first one is written.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	time.RFC3339,
}

type expenseRecord struct {
	ID          flexNumber `json:"id"`
	Description string     `json:"description"`
	Amount      flexNumber `json:"amount"`
	Category    string     `json:"category"`
	Date        string     `json:"date"`
}

// flexNumber decodes a JSON number or a numeric string.
type flexNumber struct {
	decimal.Decimal
}

func (n flexNumber) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}
	text := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	n.Decimal = d
	return nil
}

func moneyNumber(m core.Money) flexNumber {
	return flexNumber{m.Decimal()}
}

func (n flexNumber) money() (core.Money, error) {
	return core.FromDecimal(n.Decimal)
}

func encodeExpenses(list []core.Expense) (string, error) {
	recs := make([]expenseRecord, 0, len(list))
	for _, e := range list {
		recs = append(recs, expenseRecord{
			ID:          flexNumber{decimal.NewFromInt(e.ID)},
			Description: e.Description,
			Amount:      moneyNumber(e.Amount),
			Category:    e.Category.String(),
			Date:        e.Date.String(),
		})
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeExpenses parses the expenses key. Records with an unknown category
// are kept as other; an unreadable date leaves the zero date.
func decodeExpenses(raw string) ([]core.Expense, []string, error) {
	var recs []expenseRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, nil, err
	}
	var (
		notes []string
		out   []core.Expense
	)
	for _, r := range recs {
		amount, err := r.Amount.money()
		if err != nil {
			return nil, nil, fmt.Errorf("expense %s: amount %s out of range", r.ID.String(), r.Amount.String())
		}
		e := core.Expense{
			ID:          r.ID.IntPart(),
			Description: r.Description,
			Amount:      amount,
		}
		cat, err := core.ParseCategory(r.Category)
		if err != nil {
			notes = append(notes, fmt.Sprintf("expense %d: unknown category %q kept as other", e.ID, r.Category))
			cat = core.Other
		}
		e.Category = cat
		if d, ok := parseDate(r.Date); ok {
			e.Date = d
		} else {
			notes = append(notes, fmt.Sprintf("expense %d: unreadable date %q", e.ID, r.Date))
		}
		out = append(out, e)
	}
	return out, notes, nil
}

func parseDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), true
		}
	}
	return core.Date{}, false
}

func encodeBudgets(b core.BudgetSet) (string, error) {
	out := make(map[string]flexNumber, len(b))
	for _, c := range core.Categories() {
		out[c.String()] = moneyNumber(b[c])
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeBudgets ignores keys that are not categories.
func decodeBudgets(raw string) (core.BudgetSet, error) {
	var in map[string]flexNumber
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("budgets is not an object")
	}
	out := core.NewBudgetSet()
	for k, v := range in {
		c, err := core.ParseCategory(k)
		if err != nil {
			continue
		}
		m, err := v.money()
		if err != nil {
			return nil, fmt.Errorf("budget %s: amount %s out of range", k, v.String())
		}
		out[c] = m
	}
	return out, nil
}
