package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the whole store to a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Backup.ExportFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", args[0])
			return nil
		},
	}
}

func newBackupCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Restore from a backup",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON backup into the store; existing records are kept, duplicates skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.app.Backup.RestoreFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d transactions, skipped %d already present\n",
				res.Imported, res.Skipped)
			return nil
		},
	})
	return cmd
}
