package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/snapshot"
	"fintrack/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev core.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []core.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventKind, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

// flakySnapshots fails Save while failing is set.
type flakySnapshots struct {
	*snapshot.Store
	failing bool
}

func (f *flakySnapshots) Save(ctx context.Context, st core.LedgerState) error {
	if f.failing {
		return errors.New("disk full")
	}
	return f.Store.Save(ctx, st)
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T, opts ...Option) (*LedgerService, *memory.Store, *recordingPublisher) {
	t.Helper()
	kv := memory.New()
	pub := &recordingPublisher{}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithPublisher(pub)}, opts...)
	svc, err := NewLedgerService(context.Background(), snapshot.New(kv, nil), opts...)
	require.NoError(t, err)
	return svc, kv, pub
}

func TestLedgerServiceScenarios(t *testing.T) {
	ctx := context.Background()
	svc, kv, pub := newService(t)

	require.NoError(t, svc.AddIncome(ctx, core.Money{Cents: 50000}))
	st := svc.State()
	assert.Equal(t, int64(50000), st.Income.Cents)
	assert.Equal(t, int64(50000), st.Balance.Cents)

	e, err := svc.AddExpense(ctx, "Lunch", core.Money{Cents: 1250}, core.Food)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2026, 10, 18), e.Date)
	assert.Equal(t, fixedNow.UnixMilli(), e.ID)
	assert.Equal(t, "487.5", svc.State().Balance.String())

	removed, err := svc.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	st = svc.State()
	assert.Equal(t, int64(50000), st.Balance.Cents)
	assert.Empty(t, st.Expenses)

	balance, _, _ := kv.Get(ctx, snapshot.KeyBalance)
	assert.Equal(t, "500", balance)

	assert.Equal(t, []core.EventKind{core.EventIncomeAdded, core.EventExpenseAdded, core.EventExpenseDeleted}, pub.kinds())
	assert.Equal(t, "Lunch", pub.events[2].Description, "delete event carries the removed record")
}

func TestLedgerServiceBudgetScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	require.NoError(t, svc.SetBudget(ctx, core.Food, core.Money{Cents: 10000}))
	_, err := svc.AddExpense(ctx, "Groceries", core.Money{Cents: 5000}, core.Food)
	require.NoError(t, err)

	st := core.BudgetStatusFor(svc.State(), core.Food)
	assert.Equal(t, int64(5000), st.Spent.Cents)
	assert.Equal(t, int64(10000), st.Budget.Cents)
	assert.Equal(t, 50.0, st.Percentage)
}

func TestLedgerServiceRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, kv, pub := newService(t)

	_, err := svc.AddExpense(ctx, "", core.Money{Cents: 100}, core.Food)
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
	_, err = svc.AddExpense(ctx, "x", core.Money{Cents: 100}, "rent")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
	assert.ErrorIs(t, svc.AddIncome(ctx, core.Money{Cents: -1}), core.ErrInvalidAmount)

	assert.Equal(t, uint64(0), svc.Revision())
	assert.Equal(t, 0, kv.Len())
	assert.Empty(t, pub.kinds())
}

func TestLedgerServiceDeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, kv, pub := newService(t)

	removed, err := svc.DeleteExpense(ctx, 999)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 0, kv.Len())
	assert.Empty(t, pub.kinds())
}

func TestLedgerServiceSaveFailureDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	snaps := &flakySnapshots{Store: snapshot.New(memory.New(), nil)}
	pub := &recordingPublisher{}
	svc, err := NewLedgerService(ctx, snaps, WithPublisher(pub))
	require.NoError(t, err)

	require.NoError(t, svc.AddIncome(ctx, core.Money{Cents: 1000}))

	snaps.failing = true
	_, err = svc.AddExpense(ctx, "Coffee", core.Money{Cents: 300}, core.Food)
	require.Error(t, err)

	st := svc.State()
	assert.Empty(t, st.Expenses)
	assert.Equal(t, int64(1000), st.Balance.Cents)
	assert.Equal(t, uint64(1), svc.Revision())
	assert.Len(t, pub.kinds(), 1)

	snaps.failing = false
	reloaded, err := snaps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, reloaded)
}

func TestLedgerServicePublishFailureKeepsChange(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	pub.err = errors.New("broker down")

	require.NoError(t, svc.AddIncome(ctx, core.Money{Cents: 700}))
	assert.Equal(t, int64(700), svc.State().Income.Cents)
}

func TestLedgerServiceReloadSeedsIDs(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	clock := func() time.Time { return fixedNow }

	first, err := NewLedgerService(ctx, snapshot.New(kv, nil), WithClock(clock))
	require.NoError(t, err)
	a, err := first.AddExpense(ctx, "a", core.Money{Cents: 1}, core.Other)
	require.NoError(t, err)
	b, err := first.AddExpense(ctx, "b", core.Money{Cents: 1}, core.Other)
	require.NoError(t, err)
	assert.Equal(t, a.ID+1, b.ID)

	second, err := NewLedgerService(ctx, snapshot.New(kv, nil), WithClock(clock))
	require.NoError(t, err)
	assert.Len(t, second.State().Expenses, 2)

	c, err := second.AddExpense(ctx, "c", core.Money{Cents: 1}, core.Other)
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID)
}

func TestLedgerServiceConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.AddIncome(ctx, core.Money{Cents: 100})
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.AddExpense(ctx, "x", core.Money{Cents: 50}, core.Entertainment)
		}()
	}
	wg.Wait()

	st := svc.State()
	require.NoError(t, st.Check())
	assert.Len(t, st.Expenses, 40)
	assert.Equal(t, int64(4000), st.Income.Cents)
	assert.Equal(t, uint64(80), svc.Revision())

	for i := 1; i < len(st.Expenses); i++ {
		assert.Greater(t, st.Expenses[i].ID, st.Expenses[i-1].ID, "ids follow insertion order")
	}
}

func TestLedgerServiceSharedStore(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	clock := WithClock(func() time.Time { return fixedNow })

	server, err := NewLedgerService(ctx, snapshot.New(kv, nil), clock)
	require.NoError(t, err)
	cli, err := NewLedgerService(ctx, snapshot.New(kv, nil), clock)
	require.NoError(t, err)

	lunch, err := cli.AddExpense(ctx, "Lunch", core.Money{Cents: 1200}, core.Food)
	require.NoError(t, err)
	require.NoError(t, server.AddIncome(ctx, core.Money{Cents: 50000}))

	stored, err := snapshot.New(kv, nil).Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored.Expenses, 1)
	assert.Equal(t, "Lunch", stored.Expenses[0].Description)
	assert.Equal(t, int64(48800), stored.Balance.Cents)
	assert.True(t, stored.Equal(server.State()))

	next, err := server.AddExpense(ctx, "Bus", core.Money{Cents: 280}, core.Transport)
	require.NoError(t, err)
	assert.Greater(t, next.ID, lunch.ID)
}

func TestLedgerServiceReloadPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	server, err := NewLedgerService(ctx, snapshot.New(kv, nil))
	require.NoError(t, err)
	cli, err := NewLedgerService(ctx, snapshot.New(kv, nil))
	require.NoError(t, err)

	require.NoError(t, server.Reload(ctx))
	assert.Equal(t, uint64(0), server.Revision(), "unchanged store keeps the revision")

	require.NoError(t, cli.SetBudget(ctx, core.Food, core.Money{Cents: 10000}))
	require.NoError(t, server.Reload(ctx))
	assert.Equal(t, uint64(1), server.Revision())
	assert.Equal(t, int64(10000), server.State().Budgets[core.Food].Cents)
}

func TestLedgerServiceRejectsInvalidUTF8(t *testing.T) {
	ctx := context.Background()
	svc, kv, _ := newService(t)

	_, err := svc.AddExpense(ctx, "caf\xe9", core.Money{Cents: 100}, core.Food)
	assert.ErrorIs(t, err, core.ErrInvalidDescription)
	assert.Equal(t, 0, kv.Len())
}

func TestLedgerServiceRejectsIncomeOverflow(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AddIncome(ctx, core.MaxAmount))
	}
	before := svc.State()
	big := core.Money{Cents: math.MaxInt64 - before.Income.Cents + 1}
	assert.ErrorIs(t, svc.AddIncome(ctx, big), core.ErrInvalidAmount)
	assert.Equal(t, before, svc.State())
}

func TestLedgerServiceDashboard(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	_, err := svc.AddExpense(ctx, "Power", core.Money{Cents: 4200}, core.Utilities)
	require.NoError(t, err)

	d := svc.Dashboard(fixedNow)
	assert.Equal(t, 1, d.Monthly.Count)
	assert.Equal(t, int64(4200), d.Monthly.TotalSpent.Cents)
	assert.Len(t, d.Budgets, 5)

	next := svc.Dashboard(fixedNow.AddDate(0, 1, 0))
	assert.Equal(t, 0, next.Monthly.Count)
}
