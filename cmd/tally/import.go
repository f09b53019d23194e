package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newImportCmd(e *env) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import a bank or credit card CSV export",
		Long:  "Rows are date, description, charge, credit. Charges become expense\ndrafts and credits inflow drafts; run `tally categorize` afterwards to\nclassify them. Re-importing the same file skips rows already present.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := e.app.Importer.ImportCSV(cmd.Context(), f, account, filepath.Base(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d, skipped %d duplicates, %d row errors\n",
				res.Imported, res.Skipped, len(res.RowErrors))
			for _, rowErr := range res.RowErrors {
				fmt.Fprintf(out, "  %v\n", rowErr)
			}
			if res.Imported > 0 {
				fmt.Fprintln(out, "run `tally categorize` to classify the new transactions")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "account the export belongs to (created if missing)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
