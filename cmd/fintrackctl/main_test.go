package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"fintrack/internal/config"
	"fintrack/internal/core"
)

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{StorageBackend: config.BackendSQLite, SQLiteDBPath: "./data/fintrack.db", LogLevel: "info"}

	v := viper.New()
	v.Set("storage.backend", "memory")
	v.Set("logging.level", "  ")
	applyOverrides(cfg, v)

	assert.Equal(t, config.BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "./data/fintrack.db", cfg.SQLiteDBPath, "unset keys keep the server default")
	assert.Equal(t, "info", cfg.LogLevel, "blank values are ignored")
}

func TestEnvKeyReplacer(t *testing.T) {
	assert.Equal(t, "storage_sqlite_path", envKeyReplacer.Replace("storage.sqlite_path"))
}

func TestRenderSummary(t *testing.T) {
	s := core.NewLedgerState()
	s.Income = core.Money{Cents: 100000}
	s.Balance = core.Money{Cents: 95000}
	s.Budgets[core.Food] = core.Money{Cents: 4000}
	s.Expenses = []core.Expense{
		{ID: 1, Description: "Groceries", Amount: core.Money{Cents: 5000}, Category: core.Food, Date: core.NewDate(2026, 10, 3)},
	}
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	out := renderSummary(core.BuildDashboard(s, now), 10)

	for _, want := range []string{"2026-10", "Current Balance", "$950.00", "$1000.00", "Groceries", "$50.00 / $40.00", "2026-10-03"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "No expenses added yet")
}

func TestRenderSummaryEmptyAndTruncated(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, renderSummary(core.BuildDashboard(core.NewLedgerState(), now), 10), "No expenses added yet")

	s := core.NewLedgerState()
	for i := int64(1); i <= 3; i++ {
		s.Expenses = append(s.Expenses, core.Expense{ID: i, Description: "x", Category: core.Other})
	}
	out := renderSummary(core.BuildDashboard(s, now), 2)
	assert.Contains(t, out, "1 more")
}

func TestBarWidth(t *testing.T) {
	full := bar(core.BudgetStatus{Percentage: 250, Over: true})
	assert.Equal(t, barCells, strings.Count(full, "█"))

	empty := bar(core.BudgetStatus{})
	assert.Equal(t, barCells, strings.Count(empty, "░"))
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "-$2.50", dollars(core.Money{Cents: -250}))
	assert.Equal(t, "$0.00", dollars(core.Money{}))
}
