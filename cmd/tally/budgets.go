package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
	"github.com/davenisc/tally/internal/taxonomy"
)

func newBudgetsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly budgets and check progress",
	}
	cmd.AddCommand(
		newBudgetsListCmd(e),
		newBudgetsSetCmd(e),
		newBudgetsRmCmd(e),
	)
	return cmd
}

func newBudgetsListCmd(e *env) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show month-to-date progress for every budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, monthKey, err := monthArg(e.app, month)
			if err != nil {
				return err
			}

			budgets, err := e.app.Budgets.List(ctx)
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no budgets; add one with `tally budgets set`")
				return nil
			}

			txs, err := e.app.Transactions.List(ctx, repository.TransactionFilters{})
			if err != nil {
				return err
			}
			tagsByTx, err := e.app.Tags.TagIDsByTransaction(ctx)
			if err != nil {
				return err
			}

			w := newTab(cmd.OutOrStdout())
			fmt.Fprintf(w, "TARGET\tTYPE\tLIMIT\tSPENT (%s)\tREMAINING\tUSED\tSTATE\tID\n", monthKey)
			for _, b := range budgets {
				status, err := ledger.BudgetProgress(b, txs, monthKey, tagsByTx)
				if err != nil {
					return err
				}
				state := "ok"
				switch {
				case status.IsOverBudget:
					state = "OVER"
				case status.IsNearLimit:
					state = "near limit"
				}
				label, err := budgetLabel(e, cmd, b)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.1f%%\t%s\t%s\n",
					label, b.Type, money(e.app, b.MonthlyLimitCents), money(e.app, status.SpentCents),
					money(e.app, status.RemainingCents), status.Percentage, state, b.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month to report (YYYY-MM), default current")
	return cmd
}

func newBudgetsSetCmd(e *env) *cobra.Command {
	var (
		category    string
		subcategory string
		tag         string
		merchant    string
		limit       string
		threshold   float64
		account     string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or replace a budget for a category, subcategory, tag or merchant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			limitCents, err := parseAmount(limit)
			if err != nil {
				return fmt.Errorf("--limit: %w", err)
			}
			if limitCents <= 0 {
				return ledger.ErrNonPositiveLimit
			}

			budget := ledger.Budget{
				MonthlyLimitCents:     limitCents,
				AlertThresholdPercent: threshold,
			}
			if err := exactlyOne(category, subcategory, tag, merchant); err != nil {
				return err
			}
			switch {
			case category != "":
				if strings.Contains(category, ">") {
					return fmt.Errorf("%q is a subcategory path; use --subcategory", category)
				}
				budget.Type = ledger.BudgetCategory
				budget.TargetID = strings.TrimSpace(category)
			case subcategory != "":
				if !taxonomy.IsValid(subcategory) {
					return fmt.Errorf("invalid category path %q", subcategory)
				}
				budget.Type = ledger.BudgetSubcategory
				budget.TargetID = subcategory
			case tag != "":
				t, err := e.app.Tags.ByName(ctx, tag)
				if err != nil {
					return err
				}
				if t == nil {
					t = &ledger.Tag{ID: uuid.NewString(), Name: tag}
					if err := e.app.Tags.Upsert(ctx, *t); err != nil {
						return err
					}
				}
				budget.Type = ledger.BudgetTag
				budget.TargetID = t.ID
			case merchant != "":
				m, err := e.app.Merchants.ByName(ctx, merchantKey(merchant))
				if err != nil {
					return err
				}
				if m == nil {
					return fmt.Errorf("no merchant named %q", merchant)
				}
				budget.Type = ledger.BudgetMerchant
				budget.TargetID = m.ID
			}

			if account != "" {
				acct, err := findAccount(ctx, e, account)
				if err != nil {
					return err
				}
				budget.AccountID = &acct.ID
			}

			// One budget per target and scope; a second set replaces it.
			existing, err := e.app.Budgets.FindByTarget(ctx, budget.Type, budget.TargetID, budget.AccountID)
			if err != nil {
				return err
			}
			if existing != nil {
				budget.ID = existing.ID
			} else {
				budget.ID = uuid.NewString()
			}
			if err := e.app.Budgets.Upsert(ctx, budget); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "budget %s: %s per month on %s\n",
				budget.ID, money(e.app, budget.MonthlyLimitCents), budget.TargetID)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "budget a whole category (children included)")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "budget one exact subcategory path")
	cmd.Flags().StringVar(&tag, "tag", "", "budget a tag (created if missing)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "budget a merchant")
	cmd.Flags().StringVar(&limit, "limit", "", "monthly limit in dollars")
	cmd.Flags().Float64Var(&threshold, "threshold", 80, "near-limit alert threshold percent")
	cmd.Flags().StringVarP(&account, "account", "a", "", "scope to one account")
	_ = cmd.MarkFlagRequired("limit")
	return cmd
}

func newBudgetsRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Budgets.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

func exactlyOne(targets ...string) error {
	n := 0
	for _, t := range targets {
		if strings.TrimSpace(t) != "" {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("pick exactly one of --category, --subcategory, --tag, --merchant")
	}
	return nil
}

// budgetLabel resolves a human name for the budget target.
func budgetLabel(e *env, cmd *cobra.Command, b ledger.Budget) (string, error) {
	switch b.Type {
	case ledger.BudgetTag:
		tags, err := e.app.Tags.List(cmd.Context())
		if err != nil {
			return "", err
		}
		for _, t := range tags {
			if t.ID == b.TargetID {
				return "#" + t.Name, nil
			}
		}
	case ledger.BudgetMerchant:
		m, err := e.app.Merchants.Get(cmd.Context(), b.TargetID)
		if err != nil {
			return "", err
		}
		if m != nil {
			return m.Name, nil
		}
	}
	return b.TargetID, nil
}
