package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/davenisc/tally/internal/app"
	"github.com/davenisc/tally/internal/config"
	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("TALLY_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(t.TempDir(), "tally.db")

	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return &env{app: a}
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(e)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustRun(t *testing.T, e *env, args ...string) string {
	t.Helper()
	out, err := run(t, e, args...)
	require.NoError(t, err, out)
	return out
}

func writeCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))
	return path
}

const sampleCSV = `Date,Description,Charge,Credit
2024-03-01,STARBUCKS #123,5.50,
2024-03-02,PAYROLL ACME,,2500.00
2024-03-03,METRO GROCERIES,82.10,
`

func TestImportAndListFlow(t *testing.T) {
	e := testEnv(t)
	csv := writeCSV(t, sampleCSV)

	out := mustRun(t, e, "import", csv, "--account", "Chequing")
	require.Contains(t, out, "imported 3, skipped 0 duplicates, 0 row errors")

	out = mustRun(t, e, "transactions", "--month", "2024-03", "--uncategorized")
	require.Contains(t, out, "STARBUCKS #123")
	require.Contains(t, out, "PAYROLL ACME")
	require.Contains(t, out, "3 transactions")

	// Same file again: everything dedups.
	out = mustRun(t, e, "import", csv, "--account", "Chequing")
	require.Contains(t, out, "imported 0, skipped 3 duplicates")

	out = mustRun(t, e, "transactions", "--month", "2024-03", "--search", "metro")
	require.Contains(t, out, "1 transactions")

	out = mustRun(t, e, "transactions", "--month", "2024-03", "--json")
	var txs []ledger.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &txs))
	require.Len(t, txs, 3)
}

func TestAccountsLifecycle(t *testing.T) {
	e := testEnv(t)

	mustRun(t, e, "accounts", "add", "Chequing", "--kind", "bank", "--default")
	mustRun(t, e, "accounts", "add", "Visa", "--kind", "credit_card", "--limit", "5000", "--statement-day", "21", "--due-day", "14")

	out := mustRun(t, e, "accounts", "list")
	require.Contains(t, out, "Chequing")
	require.Contains(t, out, "default")
	require.Contains(t, out, "Visa")
	require.Contains(t, out, "limit $5000.00")

	mustRun(t, e, "accounts", "set-default", "Visa")
	out = mustRun(t, e, "accounts", "list")
	require.Regexp(t, `Visa.*default`, out)

	_, err := run(t, e, "accounts", "rm", "Visa")
	require.ErrorContains(t, err, "--force")

	mustRun(t, e, "accounts", "rm", "Visa", "--force", "--promote", "Chequing")
	out = mustRun(t, e, "accounts", "list")
	require.NotContains(t, out, "Visa")
	require.Regexp(t, `Chequing.*default`, out)

	_, err = run(t, e, "accounts", "add", "Bad", "--kind", "wallet")
	require.ErrorContains(t, err, "unknown kind")
}

func TestCategorizeSetAndBudgets(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()
	csv := writeCSV(t, sampleCSV)
	mustRun(t, e, "import", csv, "--account", "Chequing")

	find := func(search string) ledger.Transaction {
		txs, err := e.app.Transactions.List(ctx, repository.TransactionFilters{Search: search})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		return txs[0]
	}

	coffee := find("STARBUCKS")
	grocery := find("METRO")
	mustRun(t, e, "categorize", "set", "Food > Restaurants", coffee.ID)
	mustRun(t, e, "categorize", "set", "Food > Groceries", grocery.ID)

	got, err := e.app.Transactions.Get(ctx, coffee.ID)
	require.NoError(t, err)
	require.Equal(t, "Food > Restaurants", *got.Category)
	require.Equal(t, ledger.SourceManual, *got.CategorySource)

	mustRun(t, e, "budgets", "set", "--category", "Food", "--limit", "100")
	out := mustRun(t, e, "budgets", "list", "--month", "2024-03")
	require.Contains(t, out, "Food")
	require.Contains(t, out, "$87.60")
	require.Contains(t, out, "near limit") // 87.6% of 100 with the default 80 threshold

	// Shrinking the limit flips it over budget, replacing the same budget.
	mustRun(t, e, "budgets", "set", "--category", "Food", "--limit", "50")
	out = mustRun(t, e, "budgets", "list", "--month", "2024-03")
	require.Contains(t, out, "OVER")
	require.Contains(t, out, "-$37.60")

	_, err = run(t, e, "budgets", "set", "--category", "Food", "--subcategory", "Food > Groceries", "--limit", "10")
	require.ErrorContains(t, err, "exactly one")
}

func TestCategorizeTypeAndBulk(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()
	csv := writeCSV(t, sampleCSV)
	mustRun(t, e, "import", csv, "--account", "Chequing")
	mustRun(t, e, "accounts", "add", "Savings", "--kind", "bank", "--subtype", "SAVINGS")

	txs, err := e.app.Transactions.List(ctx, repository.TransactionFilters{Type: ledger.TypeExpense})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	out := mustRun(t, e, "categorize", "set", "Shopping", txs[0].ID, txs[1].ID)
	require.Contains(t, out, "updated 2 transactions")

	mustRun(t, e, "categorize", "type", "TRANSFER", txs[0].ID, "--to", "Savings")
	got, err := e.app.Transactions.Get(ctx, txs[0].ID)
	require.NoError(t, err)
	require.Equal(t, ledger.TypeTransfer, got.Type)
	require.Nil(t, got.Category)

	_, err = run(t, e, "categorize", "type", "TRANSFER", txs[0].ID, txs[1].ID, "--to", "Savings")
	require.ErrorContains(t, err, "single transaction")
}

func TestLinkFlow(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()
	mustRun(t, e, "accounts", "add", "Chequing", "--kind", "bank")
	accounts, err := e.app.Accounts.List(ctx, false)
	require.NoError(t, err)
	accountID := accounts[0].ID

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cat := "Shopping"
	src := ledger.SourceManual
	require.NoError(t, e.app.Transactions.Insert(ctx, ledger.Transaction{
		ID: "buy", Type: ledger.TypeExpense, AccountID: accountID, Date: day.AddDate(0, 0, -5),
		Description: "AMAZON.CA ORDER", AmountCents: 80_00,
		Category: &cat, CategorySource: &src, AffectsBudget: true,
	}))
	reimb := ledger.IncomeReimbursement
	require.NoError(t, e.app.Transactions.Insert(ctx, ledger.Transaction{
		ID: "refund", Type: ledger.TypeInflow, AccountID: accountID, Date: day,
		Description: "AMAZON.CA REFUND", AmountCents: 80_00,
		Category: &cat, CategorySource: &src, IncomeClass: &reimb, AffectsBudget: true,
	}))

	out := mustRun(t, e, "link", "candidates", "refund")
	require.Contains(t, out, "buy")
	require.Contains(t, out, "AMAZON.CA ORDER")

	mustRun(t, e, "link", "set", "refund", "buy")
	got, err := e.app.Transactions.Get(ctx, "refund")
	require.NoError(t, err)
	require.Equal(t, "buy", *got.LinkedTransactionID)

	mustRun(t, e, "link", "clear", "refund")
	got, err = e.app.Transactions.Get(ctx, "refund")
	require.NoError(t, err)
	require.Nil(t, got.LinkedTransactionID)
}

func TestReportCommand(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()
	mustRun(t, e, "accounts", "add", "Chequing", "--kind", "bank")
	accounts, err := e.app.Accounts.List(ctx, false)
	require.NoError(t, err)
	accountID := accounts[0].ID

	salary := "Income > Salary"
	groceries := "Food > Groceries"
	earned := ledger.IncomeEarned
	src := ledger.SourceManual
	require.NoError(t, e.app.Transactions.Insert(ctx, ledger.Transaction{
		ID: "pay", Type: ledger.TypeInflow, AccountID: accountID,
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "PAYROLL",
		AmountCents: 2000_00, Category: &salary, CategorySource: &src,
		IncomeClass: &earned, AffectsBudget: true,
	}))
	require.NoError(t, e.app.Transactions.Insert(ctx, ledger.Transaction{
		ID: "food", Type: ledger.TypeExpense, AccountID: accountID,
		Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Description: "METRO",
		AmountCents: 120_00, Category: &groceries, CategorySource: &src, AffectsBudget: true,
	}))

	out := mustRun(t, e, "report", "--month", "2024-03")
	require.Contains(t, out, "income     $2000.00")
	require.Contains(t, out, "expenses   $120.00")
	require.Contains(t, out, "net worth  $1880.00")
	require.Contains(t, out, "Food > Groceries")
	require.Contains(t, out, "Chequing")

	out = mustRun(t, e, "report", "--month", "2024-03", "--json")
	var r monthReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Equal(t, int64(1880_00), r.Summary.NetWorthChangeCents)
	require.Len(t, r.Accounts, 1)

	out = mustRun(t, e, "report", "--month", "2024-04", "--trend", "2", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Trend, 2)
	require.Equal(t, "2024-03", r.Trend[0].Month)
	require.Equal(t, int64(1880_00), r.Trend[0].Summary.NetWorthChangeCents)
}

func TestExportResetRestore(t *testing.T) {
	e := testEnv(t)
	csv := writeCSV(t, sampleCSV)
	mustRun(t, e, "import", csv, "--account", "Chequing")

	backup := filepath.Join(t.TempDir(), "backup.json")
	out := mustRun(t, e, "export", backup)
	require.Contains(t, out, "exported")

	_, err := run(t, e, "reset")
	require.ErrorContains(t, err, "--force")

	mustRun(t, e, "reset", "--force")
	out = mustRun(t, e, "transactions")
	require.Contains(t, out, "0 transactions")

	out = mustRun(t, e, "backup", "import", backup)
	require.Contains(t, out, "restored 3 transactions")

	out = mustRun(t, e, "transactions", "--month", "2024-03")
	require.Contains(t, out, "3 transactions")
}

func TestSettingsCommands(t *testing.T) {
	e := testEnv(t)

	out := mustRun(t, e, "settings", "show")
	require.Contains(t, out, "llm.provider")
	require.Contains(t, out, "not set")

	mustRun(t, e, "settings", "set-key", "sk-test-123")
	out = mustRun(t, e, "settings", "show")
	require.Contains(t, out, "encrypted store")
	require.NotContains(t, out, "sk-test-123")

	mustRun(t, e, "settings", "clear-key")

	mustRun(t, e, "settings", "set", "ui.currency_symbol", "€")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "€", cfg.UI.CurrencySymbol)

	_, err = run(t, e, "settings", "set", "nope", "x")
	require.ErrorContains(t, err, "unknown key")

	out = mustRun(t, e, "settings", "categories")
	require.Contains(t, out, "Food > Groceries")

	mustRun(t, e, "settings", "categories", "add", "Pets > Vet")
	out = mustRun(t, e, "settings", "categories")
	require.Contains(t, out, "Pets > Vet")

	mustRun(t, e, "settings", "categories", "rm", "Pets > Vet")
	out = mustRun(t, e, "settings", "categories")
	require.NotContains(t, out, "Pets > Vet")

	_, err = run(t, e, "settings", "categories", "add", "A > B > C")
	require.ErrorContains(t, err, "invalid category path")
}

func TestDemoCommand(t *testing.T) {
	e := testEnv(t)

	out := mustRun(t, e, "demo")
	require.Contains(t, out, "demo data loaded")

	out = mustRun(t, e, "accounts", "list")
	require.Contains(t, out, "Demo Chequing")
	require.Contains(t, out, "Demo Visa")

	out = mustRun(t, e, "report")
	require.Contains(t, out, "income")

	out = mustRun(t, e, "budgets", "list")
	require.Contains(t, out, "Food")

	_, err := run(t, e, "demo")
	require.ErrorContains(t, err, "not empty")
}
