package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// SnapshotStore persists the whole ledger state.
type SnapshotStore interface {
	Save(ctx context.Context, st core.LedgerState) error
	Load(ctx context.Context) (core.LedgerState, error)
}

// EventPublisher receives one event per committed mutation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
}

// LedgerService owns the in-memory ledger. Reload, Apply, Save and commit run
// under the lock; the event is published after it is released. Other
// processes may write the same store, so every mutation starts from the
// stored snapshot.
type LedgerService struct {
	mu        sync.Mutex
	state     core.LedgerState
	revision  uint64
	snapshots SnapshotStore
	publisher EventPublisher
	ids       *core.IDSource
	now       func() time.Time
	logger    *log.Logger
	events    *log.StructuredLogger
}

type Option func(*LedgerService)

// WithClock replaces time.Now for dates and ids.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithPublisher enables event fan-out.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

// NewLedgerService loads the current snapshot and seeds the id source from it.
func NewLedgerService(ctx context.Context, snapshots SnapshotStore, opts ...Option) (*LedgerService, error) {
	s := &LedgerService{
		snapshots: snapshots,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	s.ids = core.NewIDSource(s.now)

	st, err := snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	s.state = st
	s.ids.Seed(st.MaxExpenseID())

	s.logger.InfoContext(ctx, "Ledger loaded",
		"expenses", len(st.Expenses),
		"balance", st.Balance.String(),
		"income", st.Income.String())
	return s, nil
}

func (s *LedgerService) AddExpense(ctx context.Context, description string, amount core.Money, category core.Category) (core.Expense, error) {
	var a core.AddExpense
	build := func() core.Action {
		a = core.AddExpense{
			ID:          s.ids.Next(),
			Date:        core.DateOf(s.now()),
			Description: description,
			Amount:      amount,
			Category:    category,
		}
		return a
	}
	if _, err := s.mutate(ctx, build); err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          a.ID,
		Description: a.Description,
		Amount:      a.Amount,
		Category:    a.Category,
		Date:        a.Date,
	}, nil
}

// DeleteExpense reports whether an expense was removed. Deleting an unknown
// id succeeds without touching storage.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	removed, err := s.mutate(ctx, action(core.DeleteExpense{ID: id}))
	if err != nil {
		return false, err
	}
	return removed != nil, nil
}

func (s *LedgerService) AddIncome(ctx context.Context, amount core.Money) error {
	_, err := s.mutate(ctx, action(core.AddIncome{Amount: amount}))
	return err
}

func (s *LedgerService) SetBudget(ctx context.Context, category core.Category, amount core.Money) error {
	_, err := s.mutate(ctx, action(core.SetBudget{Category: category, Amount: amount}))
	return err
}

// State returns a deep copy of the current ledger.
func (s *LedgerService) State() core.LedgerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Revision increases with every committed mutation and with every reload
// that found a changed ledger.
func (s *LedgerService) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *LedgerService) Dashboard(now time.Time) core.Dashboard {
	return core.BuildDashboard(s.State(), now)
}

// Reload picks up changes written to the store by another process. The
// revision moves only when the stored ledger differs from memory.
func (s *LedgerService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *LedgerService) reloadLocked(ctx context.Context) error {
	st, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	if st.Equal(s.state) {
		return nil
	}
	s.logger.InfoContext(ctx, "Ledger changed in storage, reloaded",
		log.FieldOperation, log.OpLoad,
		"expenses", len(st.Expenses))
	s.state = st
	s.ids.Seed(st.MaxExpenseID())
	s.revision++
	return nil
}

func action(a core.Action) func() core.Action {
	return func() core.Action { return a }
}

// mutate returns the removed expense for deletes that hit an existing id.
// build runs under the lock so that ids follow commit order.
func (s *LedgerService) mutate(ctx context.Context, build func() core.Action) (*core.Expense, error) {
	s.mu.Lock()

	if err := s.reloadLocked(ctx); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Ledger not loaded, change discarded",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpLoad)
		return nil, err
	}

	a := build()
	var removed *core.Expense
	if d, ok := a.(core.DeleteExpense); ok {
		e, found := s.state.Find(d.ID)
		if !found {
			s.mu.Unlock()
			s.logger.DebugContext(ctx, "Delete of unknown expense ignored", log.FieldExpenseID, d.ID)
			return nil, nil
		}
		removed = &e
	}

	next, err := core.Apply(s.state, a)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.snapshots.Save(ctx, next); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Ledger not saved, change discarded",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpSave)
		return nil, fmt.Errorf("persist ledger: %w", err)
	}
	s.state = next
	s.revision++
	s.mu.Unlock()

	ev := core.EventFor(a, removed, s.now())
	s.events.LogLedgerChange(ctx, string(ev.Kind), log.NewFields().
		WithExpense(ev.ExpenseID, ev.Description, ev.Amount.String(), ev.Category.String()))
	s.publish(ctx, ev)
	return removed, nil
}

func (s *LedgerService) publish(ctx context.Context, ev core.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, event dropped", log.FieldEventKind, string(ev.Kind))
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		// The change is already stored; only the fan-out is lost.
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, string(ev.Kind),
			log.FieldError, err.Error())
	}
}

// Close releases the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
