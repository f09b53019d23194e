package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

func newTransactionsCmd(e *env) *cobra.Command {
	var (
		account       string
		txType        string
		category      string
		children      bool
		month         string
		search        string
		uncategorized bool
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List transactions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filters := repository.TransactionFilters{
				Category:        category,
				IncludeChildren: children,
				Search:          search,
				Uncategorized:   uncategorized,
			}
			if account != "" {
				acct, err := findAccount(ctx, e, account)
				if err != nil {
					return err
				}
				filters.AccountID = acct.ID
			}
			if txType != "" {
				typ := ledger.TransactionType(strings.ToUpper(txType))
				if !typ.Valid() {
					return fmt.Errorf("unknown type %q", txType)
				}
				filters.Type = typ
			}
			if month != "" {
				start, _, err := monthArg(e.app, month)
				if err != nil {
					return err
				}
				filters.Month = start
			}

			txs, err := e.app.Transactions.List(ctx, filters)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(txs)
			}

			names, err := accountNames(e, cmd)
			if err != nil {
				return err
			}
			w := newTab(cmd.OutOrStdout())
			fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION\tACCOUNT\tID")
			for _, t := range txs {
				category := ""
				if t.Category != nil {
					category = *t.Category
					if t.CategorySource != nil {
						category += " (" + string(*t.CategorySource) + ")"
					}
				}
				accountLabel := names[t.AccountID]
				if t.ToAccountID != nil {
					accountLabel += " -> " + names[*t.ToAccountID]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					renderDate(e.app, t.Date), t.Type, money(e.app, t.AmountCents),
					category, t.Description, accountLabel, t.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d transactions\n", len(txs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "filter by account name or id")
	cmd.Flags().StringVarP(&txType, "type", "t", "", "filter by type (INFLOW, EXPENSE, TRANSFER, ADJUSTMENT)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category path")
	cmd.Flags().BoolVar(&children, "children", false, "with --category, include subcategories")
	cmd.Flags().StringVarP(&month, "month", "m", "", "filter by month (YYYY-MM)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search descriptions and merchants")
	cmd.Flags().BoolVarP(&uncategorized, "uncategorized", "u", false, "only uncategorized expenses and inflows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func accountNames(e *env, cmd *cobra.Command) (map[string]string, error) {
	accounts, err := e.app.Accounts.List(cmd.Context(), true)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names, nil
}
