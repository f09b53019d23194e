package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/ledger"
)

func newAccountsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage bank and credit card accounts",
	}
	cmd.AddCommand(
		newAccountsListCmd(e),
		newAccountsAddCmd(e),
		newAccountsSetDefaultCmd(e),
		newAccountsRmCmd(e),
	)
	return cmd
}

func newAccountsListCmd(e *env) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := e.app.Accounts.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			w := newTab(cmd.OutOrStdout())
			fmt.Fprintln(w, "NAME\tKIND\tDETAIL\tCURRENCY\tFLAGS\tID")
			for _, a := range accounts {
				var detail string
				switch {
				case a.Bank != nil:
					detail = string(a.Bank.Subtype)
				case a.CreditCard != nil:
					detail = fmt.Sprintf("limit %s", money(e.app, a.CreditCard.CreditLimitCents))
				}
				var flags []string
				if a.IsDefault {
					flags = append(flags, "default")
				}
				if !a.IsActive {
					flags = append(flags, "inactive")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					a.Name, a.Kind, detail, a.Currency, strings.Join(flags, ","), a.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive accounts")
	return cmd
}

func newAccountsAddCmd(e *env) *cobra.Command {
	var (
		kind         string
		subtype      string
		institution  string
		currency     string
		limit        string
		statementDay int
		dueDay       int
		makeDefault  bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := ledger.Account{
				ID:          uuid.NewString(),
				Name:        args[0],
				Institution: institution,
				Currency:    currency,
				IsDefault:   makeDefault,
				IsActive:    true,
			}
			switch ledger.AccountKind(kind) {
			case ledger.KindBank:
				account.Kind = ledger.KindBank
				account.Bank = &ledger.BankDetail{Subtype: ledger.BankSubtype(strings.ToUpper(subtype))}
				if !account.Bank.Subtype.Valid() {
					return fmt.Errorf("unknown subtype %q", subtype)
				}
			case ledger.KindCreditCard:
				account.Kind = ledger.KindCreditCard
				limitCents, err := parseAmount(limit)
				if err != nil {
					return fmt.Errorf("--limit: %w", err)
				}
				account.CreditCard = &ledger.CreditCardDetail{
					CreditLimitCents: limitCents,
					StatementDay:     statementDay,
					DueDay:           dueDay,
				}
			default:
				return fmt.Errorf("unknown kind %q (want bank or credit_card)", kind)
			}
			if err := e.app.Accounts.Insert(cmd.Context(), account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s account %s (%s)\n", account.Kind, account.Name, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "bank", "bank or credit_card")
	cmd.Flags().StringVar(&subtype, "subtype", "CHEQUING", "bank subtype (CHEQUING, SAVINGS, CASH, INVESTMENT_CASH)")
	cmd.Flags().StringVar(&institution, "institution", "", "institution name")
	cmd.Flags().StringVar(&currency, "currency", "CAD", "currency code")
	cmd.Flags().StringVar(&limit, "limit", "0", "credit limit in dollars (credit_card)")
	cmd.Flags().IntVar(&statementDay, "statement-day", 1, "statement day of month (credit_card)")
	cmd.Flags().IntVar(&dueDay, "due-day", 1, "payment due day of month (credit_card)")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "make this the default account")
	return cmd
}

func newAccountsSetDefaultCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <name-or-id>",
		Short: "Mark an account as the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := findAccount(cmd.Context(), e, args[0])
			if err != nil {
				return err
			}
			if err := e.app.Accounts.SetDefault(cmd.Context(), account.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now the default account\n", account.Name)
			return nil
		},
	}
}

func newAccountsRmCmd(e *env) *cobra.Command {
	var promote string
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <name-or-id>",
		Short: "Delete an account and its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := findAccount(cmd.Context(), e, args[0])
			if err != nil {
				return err
			}
			if !force {
				return fmt.Errorf("deleting %s removes all its transactions; re-run with --force", account.Name)
			}
			var promoteID string
			if promote != "" {
				successor, err := findAccount(cmd.Context(), e, promote)
				if err != nil {
					return err
				}
				promoteID = successor.ID
			}
			if err := e.app.Accounts.Delete(cmd.Context(), account.ID, promoteID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", account.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&promote, "promote", "", "account to promote to default if the deleted one was")
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation")
	return cmd
}

// findAccount resolves by id first, then by case-insensitive name.
func findAccount(ctx context.Context, e *env, key string) (*ledger.Account, error) {
	if account, err := e.app.Accounts.Get(ctx, key); err != nil {
		return nil, err
	} else if account != nil {
		return account, nil
	}
	accounts, err := e.app.Accounts.List(ctx, true)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Name, key) {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("no account named %q", key)
}
