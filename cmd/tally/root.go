package main

import (
	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/app"
	"github.com/davenisc/tally/internal/config"
	"github.com/davenisc/tally/internal/logger"
)

// env carries the application state into command closures. Tests
// pre-wire app against a scratch store; the real binary builds it in
// the root hook before any subcommand runs.
type env struct {
	app *app.App
}

func newRootCmd(e *env) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "tally",
		Short:         "Local-first personal finance tracker",
		Long:          "tally ingests bank CSV exports, classifies transactions through merchant\nrules and an LLM, and reports budgets, spending and income from a local\nSQLite store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if e.app != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, logger.New(logLevel))
			if err != nil {
				return err
			}
			e.app = a
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newImportCmd(e),
		newAccountsCmd(e),
		newTransactionsCmd(e),
		newBudgetsCmd(e),
		newReportCmd(e),
		newCategorizeCmd(e),
		newLinkCmd(e),
		newExportCmd(e),
		newBackupCmd(e),
		newSettingsCmd(e),
		newResetCmd(e),
		newDemoCmd(e),
	)
	return root
}
