// Package snapshot mirrors the ledger state to a flat key-value store and
// reads it back at start-up.
package snapshot

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Storage keys. The session keys live here too so every key the
// application writes is listed in one place.
const (
	KeyExpenses      = "expenses"
	KeyBudgets       = "budgets"
	KeyBalance       = "balance"
	KeyIncome        = "income"
	KeyToken         = "token"
	KeyUser          = "user"
	KeySavedEmail    = "savedEmail"
	KeySavedPassword = "savedPassword"
)

// LedgerKeys are the keys written by Save.
var LedgerKeys = []string{KeyExpenses, KeyBudgets, KeyBalance, KeyIncome}

type Store struct {
	kv     storage.Store
	logger *log.Logger
}

func New(kv storage.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{kv: kv, logger: logger.WithComponent(log.ComponentSnapshot)}
}

// Save writes the four ledger keys in one SetMany call.
func (s *Store) Save(ctx context.Context, st core.LedgerState) error {
	expenses, err := encodeExpenses(st.Expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	budgets, err := encodeBudgets(st.Budgets)
	if err != nil {
		return fmt.Errorf("encode budgets: %w", err)
	}
	err = s.kv.SetMany(ctx, map[string]string{
		KeyExpenses: expenses,
		KeyBudgets:  budgets,
		KeyBalance:  st.Balance.String(),
		KeyIncome:   st.Income.String(),
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads every ledger key on its own. Missing or unreadable keys fall
// back to their defaults; only store errors are returned.
func (s *Store) Load(ctx context.Context) (core.LedgerState, error) {
	st := core.NewLedgerState()

	raw, ok, err := s.get(ctx, KeyExpenses)
	if err != nil {
		return st, err
	}
	if ok {
		list, notes, err := decodeExpenses(raw)
		if err != nil {
			s.readError(ctx, KeyExpenses, err)
		} else {
			st.Expenses = list
			for _, n := range notes {
				s.logger.WarnContext(ctx, "Legacy expense record adjusted", log.FieldKey, KeyExpenses, "detail", n)
			}
		}
	}

	raw, ok, err = s.get(ctx, KeyBudgets)
	if err != nil {
		return st, err
	}
	if ok {
		b, err := decodeBudgets(raw)
		if err != nil {
			s.readError(ctx, KeyBudgets, err)
		} else {
			st.Budgets = b
		}
	}

	for _, f := range []struct {
		key string
		dst *core.Money
	}{
		{KeyBalance, &st.Balance},
		{KeyIncome, &st.Income},
	} {
		raw, ok, err := s.get(ctx, f.key)
		if err != nil {
			return st, err
		}
		if !ok {
			continue
		}
		m, err := core.ParseDecimalText(raw)
		if err != nil {
			s.readError(ctx, f.key, err)
			continue
		}
		*f.dst = m
	}

	if err := st.Check(); err != nil {
		s.logger.WarnContext(ctx, "Loaded ledger is inconsistent",
			log.FieldError, err.Error(),
			"balance", st.Balance.String(),
			"income", st.Income.String(),
			"spent", st.Spent().String())
	}
	s.logger.DebugContext(ctx, "Ledger snapshot loaded", "expenses", len(st.Expenses))
	return st, nil
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", key, err)
	}
	return v, ok, nil
}

func (s *Store) readError(ctx context.Context, key string, err error) {
	fields := log.NewFields().
		WithKey(key).
		WithError(err).
		WithOperation(log.OpLoad)
	fields["error_type"] = log.ErrorTypePersistence
	s.logger.WarnContext(ctx, "Ignoring unreadable snapshot key", fields.ToSlice()...)
}
