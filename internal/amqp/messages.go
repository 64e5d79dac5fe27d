package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// LedgerEventMessage is the wire form of core.LedgerEvent. Amounts travel as
// decimal text and dates as 2006-01-02 so no precision is lost.
type LedgerEventMessage struct {
	Kind        string    `json:"kind"`
	ExpenseID   int64     `json:"expense_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

var errMissingKind = errors.New("message has no kind")

func NewLedgerEventMessage(ev core.LedgerEvent) *LedgerEventMessage {
	msg := &LedgerEventMessage{
		Kind:        string(ev.Kind),
		ExpenseID:   ev.ExpenseID,
		Description: ev.Description,
		Category:    ev.Category.String(),
		Amount:      ev.Amount.String(),
		Timestamp:   ev.Timestamp,
	}
	if !ev.Date.IsZero() {
		msg.Date = ev.Date.String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, errMissingKind
	}
	return &msg, nil
}

// ToEvent converts the message back to the domain event.
func (m *LedgerEventMessage) ToEvent() (core.LedgerEvent, error) {
	ev := core.LedgerEvent{
		Kind:        core.EventKind(m.Kind),
		ExpenseID:   m.ExpenseID,
		Description: m.Description,
		Timestamp:   m.Timestamp,
	}
	if m.Category != "" {
		c, err := core.ParseCategory(m.Category)
		if err != nil {
			return ev, fmt.Errorf("category %q: %w", m.Category, err)
		}
		ev.Category = c
	}
	if m.Amount != "" {
		amount, err := core.ParseDecimalText(m.Amount)
		if err != nil {
			return ev, fmt.Errorf("amount %q: %w", m.Amount, err)
		}
		ev.Amount = amount
	}
	if m.Date != "" {
		t, err := time.Parse("2006-01-02", m.Date)
		if err != nil {
			return ev, fmt.Errorf("date %q: %w", m.Date, err)
		}
		ev.Date = core.DateOf(t)
	}
	return ev, nil
}
