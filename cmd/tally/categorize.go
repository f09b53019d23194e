package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/ledger"
	"github.com/davenisc/tally/internal/service"
)

func newCategorizeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Classify uncategorized transactions via merchant rules, then the LLM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if e.app.APIKey == "" {
				fmt.Fprintln(out, "no LLM api key configured; only merchant rules will apply")
				fmt.Fprintln(out, "set one with `tally settings set-key` or the GEMINI_API_KEY env var")
			}
			res, err := e.app.Categorizer.CategorizeUncategorized(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "categorized %d by rule, %d by AI; dropped %d invalid suggestions\n",
				res.ByRule, res.ByAI, res.Dropped)
			if res.FailedBatches > 0 {
				fmt.Fprintf(out, "%d batches failed; %d transactions still uncategorized (re-run to retry)\n",
					res.FailedBatches, res.Remaining)
			} else if res.Remaining > 0 {
				fmt.Fprintf(out, "%d transactions remain uncategorized\n", res.Remaining)
			}
			return nil
		},
	}
	cmd.AddCommand(newCategorizeSetCmd(e), newCategorizeTypeCmd(e))
	return cmd
}

func newCategorizeSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <transaction-id>...",
		Short: "Manually set a category; the merchant rule is remembered",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, ids := args[0], args[1:]
			if len(ids) == 1 {
				if err := e.app.Categorizer.Recategorize(cmd.Context(), ids[0], category); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "categorized as %s\n", category)
				return nil
			}

			res, err := e.app.Bulk.Recategorize(cmd.Context(), ids, category)
			if err != nil {
				return err
			}
			reportBulk(cmd, res)
			return res.Err()
		},
	}
}

func newCategorizeTypeCmd(e *env) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "type <TYPE> <transaction-id>...",
		Short: "Change transaction type (INFLOW, EXPENSE, TRANSFER, ADJUSTMENT)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newType := ledger.TransactionType(strings.ToUpper(args[0]))
			if !newType.Valid() {
				return fmt.Errorf("unknown type %q", args[0])
			}
			ids := args[1:]

			if len(ids) == 1 {
				var toID *string
				if to != "" {
					acct, err := findAccount(cmd.Context(), e, to)
					if err != nil {
						return err
					}
					toID = &acct.ID
				}
				if err := e.app.Categorizer.ChangeType(cmd.Context(), ids[0], newType, toID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "now %s\n", newType)
				return nil
			}

			if to != "" {
				return fmt.Errorf("--to applies to a single transaction; retype transfers one at a time")
			}
			res, err := e.app.Bulk.ChangeType(cmd.Context(), ids, newType)
			if err != nil {
				return err
			}
			reportBulk(cmd, res)
			return res.Err()
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination account when retyping to TRANSFER")
	return cmd
}

func reportBulk(cmd *cobra.Command, res service.BulkResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "updated %d transactions\n", len(res.Succeeded))
	if len(res.Failed) == 0 {
		return
	}
	ids := make([]string, 0, len(res.Failed))
	for id := range res.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "  %s: %v\n", id, res.Failed[id])
	}
}
