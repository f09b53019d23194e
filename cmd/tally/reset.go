package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/database"
	"github.com/davenisc/tally/internal/testdata"
)

func newResetCmd(e *env) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all user data; schema and version stay intact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("this deletes every account, transaction, budget and rule; re-run with --force")
			}
			if err := e.app.Maintenance.Reset(cmd.Context()); err != nil {
				return err
			}
			if err := database.SeedDefaults(cmd.Context(), e.app.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "store wiped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation")
	return cmd
}

func newDemoCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Fill an empty store with sample data to explore the commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := e.app.Accounts.List(cmd.Context(), true)
			if err != nil {
				return err
			}
			if len(accounts) > 0 {
				return fmt.Errorf("store is not empty; `tally reset --force` first")
			}
			err = testdata.Seed(cmd.Context(), testdata.Repos{
				Accounts:     e.app.Accounts,
				Merchants:    e.app.Merchants,
				Transactions: e.app.Transactions,
				Rules:        e.app.Rules,
				Budgets:      e.app.Budgets,
				Tags:         e.app.Tags,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "demo data loaded; try `tally report` or `tally budgets list`")
			return nil
		},
	}
}
