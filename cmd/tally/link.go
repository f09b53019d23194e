package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLinkCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Connect reimbursement inflows to the purchases they refund",
	}
	cmd.AddCommand(
		newLinkCandidatesCmd(e),
		newLinkSetCmd(e),
		newLinkClearCmd(e),
	)
	return cmd
}

func newLinkCandidatesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <refund-id>",
		Short: "Rank the likely purchases behind a refund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := e.app.Linker.Candidates(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no candidate purchases in the 90 days before the refund")
				return nil
			}
			w := newTab(cmd.OutOrStdout())
			fmt.Fprintln(w, "SCORE\tDATE\tAMOUNT\tDESCRIPTION\tID")
			for _, c := range candidates {
				fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\t%s\n",
					c.Score, renderDate(e.app, c.Transaction.Date),
					money(e.app, c.Transaction.AmountCents), c.Transaction.Description, c.Transaction.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "link one with `tally link set <refund-id> <expense-id>`")
			return nil
		},
	}
}

func newLinkSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <refund-id> <expense-id>",
		Short: "Record the link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Linker.Link(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "linked")
			return nil
		},
	}
}

func newLinkClearCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <refund-id>",
		Short: "Remove the link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Linker.Unlink(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unlinked")
			return nil
		},
	}
}
