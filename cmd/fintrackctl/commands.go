package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

func summaryCmd() *cobra.Command {
	var year, month, recent int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show balance, monthly summary, budgets and recent expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, closeLedger, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			now := time.Now()
			if year > 0 || month > 0 {
				y, m := now.Year(), now.Month()
				if year > 0 {
					y = year
				}
				if month >= 1 && month <= 12 {
					m = time.Month(month)
				}
				now = time.Date(y, m, 1, 12, 0, 0, 0, now.Location())
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSummary(ledger.Dashboard(now), recent))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year of the monthly summary (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "month of the monthly summary, 1-12 (default: current)")
	cmd.Flags().IntVar(&recent, "recent", 10, "number of expenses to list, 0 for all")
	return cmd
}

func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Add or delete expenses",
	}
	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(deleteExpenseCmd())
	return cmd
}

func addExpenseCmd() *cobra.Command {
	var description, amount, category string

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record an expense dated today",
		Example: `  fintrackctl expense add --description "Lunch" --amount 12.50 --category food`,
		RunE: func(cmd *cobra.Command, args []string) error {
			money, err := core.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			cat, err := core.ParseCategory(category)
			if err != nil {
				return fmt.Errorf("invalid category %q: %w", category, err)
			}

			ledger, closeLedger, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			e, err := ledger.AddExpense(cmd.Context(), description, money, cat)
			if err != nil {
				return fmt.Errorf("failed to add expense: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(
				fmt.Sprintf("✓ Added expense %d: %s %s (%s)", e.ID, e.Description, dollars(e.Amount), e.Category.Label())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "what the money was spent on")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, e.g. 12.50")
	cmd.Flags().StringVarP(&category, "category", "c", string(core.Other), "food, transport, utilities, entertainment or other")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func deleteExpenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense and refund its amount to the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid expense id %q", args[0])
			}

			ledger, closeLedger, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			removed, err := ledger.DeleteExpense(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to delete expense: %w", err)
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), SubtleStyle.Render(fmt.Sprintf("No expense with id %d", id)))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf("✓ Deleted expense %d", id)))
			return nil
		},
	}
}

func incomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Record income",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <amount>",
		Short: "Add income to the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			money, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			ledger, closeLedger, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			if err := ledger.AddIncome(cmd.Context(), money); err != nil {
				return fmt.Errorf("failed to add income: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(
				fmt.Sprintf("✓ Added income %s, balance is now %s", dollars(money), dollars(ledger.State().Balance))))
			return nil
		},
	})
	return cmd
}

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage category budgets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "set <category> <amount>",
		Short:   "Set the budget of a category",
		Example: "  fintrackctl budget set food 300",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := core.ParseCategory(args[0])
			if err != nil {
				return fmt.Errorf("invalid category %q: %w", args[0], err)
			}
			money, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			ledger, closeLedger, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			if err := ledger.SetBudget(cmd.Context(), cat, money); err != nil {
				return fmt.Errorf("failed to set budget: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(
				fmt.Sprintf("✓ %s budget set to %s", cat.Label(), dollars(money))))
			return nil
		},
	})
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export ledger data",
	}

	var output string
	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write all expenses as CSV",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ledger, closeLedger, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}

			expenses := ledger.State().Expenses
			if err := report.WriteExpensesCSV(w, expenses); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
			if output != "" && output != "-" {
				fmt.Fprintln(cmd.ErrOrStderr(), SuccessStyle.Render(
					fmt.Sprintf("✓ Exported %d expenses to %s", len(expenses), output)))
			}
			return nil
		},
	}
	csvCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.AddCommand(csvCmd)
	return cmd
}
