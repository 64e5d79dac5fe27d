package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Journal keeps exported rows in memory. Used when no spreadsheet is
// configured and in tests.
type Journal struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Journal {
	return &Journal{}
}

// AppendEvent stores the row and returns a synthetic row reference.
func (j *Journal) AppendEvent(_ context.Context, ev core.LedgerEvent) (string, error) {
	if ev.Kind == "" {
		return "", fmt.Errorf("event has no kind")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, sheets.Row(ev))
	return fmt.Sprintf("mem:%d", len(j.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (j *Journal) Rows() [][]any {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([][]any, len(j.rows))
	for i, r := range j.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

var _ sheets.EventWriter = (*Journal)(nil)
