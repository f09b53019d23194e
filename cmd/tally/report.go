package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

type accountReport struct {
	Name    string         `json:"name"`
	Metrics ledger.Metrics `json:"metrics"`
}

type monthReport struct {
	Month    string                `json:"month"`
	Summary  ledger.Summary        `json:"summary"`
	Accounts []accountReport       `json:"accounts"`
	Trend    []ledger.MonthSummary `json:"trend,omitempty"`
}

func newReportCmd(e *env) *cobra.Command {
	var (
		month  string
		trend  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a month: income, spending, budgets-relevant flows, per-account metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			monthStart, monthKey, err := monthArg(e.app, month)
			if err != nil {
				return err
			}

			monthTxs, err := e.app.Transactions.List(ctx, repository.TransactionFilters{Month: monthStart})
			if err != nil {
				return err
			}
			accounts, err := e.app.Accounts.List(ctx, false)
			if err != nil {
				return err
			}

			report := monthReport{Month: monthKey, Summary: ledger.Summarize(monthTxs)}
			for _, account := range accounts {
				metrics, err := ledger.ComputeMetrics(account, monthTxs)
				if err != nil {
					return err
				}
				report.Accounts = append(report.Accounts, accountReport{Name: account.Name, Metrics: metrics})
			}

			if trend > 1 {
				from := monthStart.AddDate(0, -(trend - 1), 0)
				to := monthStart.AddDate(0, 1, 0)
				all, err := e.app.Transactions.ListForRange(ctx, from, to)
				if err != nil {
					return err
				}
				report.Trend = ledger.MonthlySeries(all, from, monthStart)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return renderReport(cmd.OutOrStdout(), e, report)
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month to report (YYYY-MM), default current")
	cmd.Flags().IntVar(&trend, "trend", 0, "also show an N-month trend ending at the month")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func renderReport(out io.Writer, e *env, r monthReport) error {
	s := r.Summary
	fmt.Fprintf(out, "%s\n\n", r.Month)
	fmt.Fprintf(out, "income     %s", money(e.app, s.Income.TotalCents))
	if sources := s.IncomeSources(); len(sources) > 0 {
		fmt.Fprint(out, "  (")
		for i, slice := range sources {
			if i > 0 {
				fmt.Fprint(out, ", ")
			}
			fmt.Fprintf(out, "%s %s", slice.Name, money(e.app, slice.AmountCents))
		}
		fmt.Fprint(out, ")")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "expenses   %s\n", money(e.app, s.Expenses.TotalCents))
	fmt.Fprintf(out, "transfers  %s across %d\n", money(e.app, s.Transfers.TotalCents), s.Transfers.Count)
	fmt.Fprintf(out, "net worth  %s\n\n", money(e.app, s.NetWorthChangeCents))

	if categories := s.ExpenseCategories(); len(categories) > 0 {
		w := newTab(out)
		fmt.Fprintln(w, "CATEGORY\tSPENT\tSHARE")
		for _, slice := range categories {
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\n", slice.Name, money(e.app, slice.AmountCents), slice.Percentage)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if len(r.Accounts) > 0 {
		w := newTab(out)
		fmt.Fprintln(w, "ACCOUNT\tIN\tOUT\tNET\tNOTES")
		for _, ar := range r.Accounts {
			switch {
			case ar.Metrics.Bank != nil:
				b := ar.Metrics.Bank
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\ttransfers %s\n",
					ar.Name, money(e.app, b.TotalIncomeCents), money(e.app, b.TotalSpendingCents),
					money(e.app, b.NetCashFlowCents), money(e.app, b.TransferVolumeCents))
			case ar.Metrics.Card != nil:
				c := ar.Metrics.Card
				notes := fmt.Sprintf("payments %s", money(e.app, c.PaymentsCents))
				if c.UtilizationPercent != nil {
					notes += fmt.Sprintf(", utilization %.1f%%", *c.UtilizationPercent)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t\t%s\n",
					ar.Name, money(e.app, c.RefundCents), money(e.app, c.SpendCents), notes)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(r.Trend) > 0 {
		fmt.Fprintln(out)
		w := newTab(out)
		fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSES\tNET")
		for _, m := range r.Trend {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Month,
				money(e.app, m.Summary.Income.TotalCents),
				money(e.app, m.Summary.Expenses.TotalCents),
				money(e.app, m.Summary.NetWorthChangeCents))
		}
		return w.Flush()
	}
	return nil
}
