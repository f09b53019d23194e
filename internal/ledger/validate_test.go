package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormed(t *testing.T) {
	t.Parallel()
	d := day(2025, 3, 10)
	for _, tx := range []Transaction{
		mkExpense("t1", "a1", "Food > Groceries", 12_00, d),
		mkInflow("t2", "a1", "Income > Salary", IncomeEarned, 2000_00, d),
		mkTransfer("t3", "a1", "a2", 300_00, d),
		mkAdjustment("t4", "a1", 5_00, d),
	} {
		require.NoError(t, Validate(tx), "type %s", tx.Type)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()
	d := day(2025, 3, 10)
	cases := []struct {
		name  string
		tx    Transaction
		field string
	}{
		{
			name: "unknown type",
			tx: Transaction{
				Type: "SPEND", AccountID: "a1", Date: d,
			},
			field: "type",
		},
		{
			name: "negative amount",
			tx: func() Transaction {
				tx := mkExpense("t1", "a1", "Food", 10_00, d)
				tx.AmountCents = -10_00
				return tx
			}(),
			field: "amountCents",
		},
		{
			name: "missing account",
			tx: func() Transaction {
				tx := mkExpense("t1", "", "Food", 10_00, d)
				return tx
			}(),
			field: "accountId",
		},
		{
			name: "zero date",
			tx: func() Transaction {
				tx := mkExpense("t1", "a1", "Food", 10_00, d)
				tx.Date = time.Time{}
				return tx
			}(),
			field: "date",
		},
		{
			name: "expense without category",
			tx: func() Transaction {
				tx := mkExpense("t1", "a1", "Food", 10_00, d)
				tx.Category = nil
				return tx
			}(),
			field: "category",
		},
		{
			name:  "expense with malformed category",
			tx:    mkExpense("t1", "a1", "A > B > C", 10_00, d),
			field: "category",
		},
		{
			name: "expense with income class",
			tx: func() Transaction {
				tx := mkExpense("t1", "a1", "Food", 10_00, d)
				cls := IncomeEarned
				tx.IncomeClass = &cls
				return tx
			}(),
			field: "incomeClass",
		},
		{
			name: "expense with destination",
			tx: func() Transaction {
				tx := mkExpense("t1", "a1", "Food", 10_00, d)
				tx.ToAccountID = strptr("a2")
				return tx
			}(),
			field: "toAccountId",
		},
		{
			name: "inflow without income class",
			tx: func() Transaction {
				tx := mkInflow("t1", "a1", "Income", IncomeEarned, 10_00, d)
				tx.IncomeClass = nil
				return tx
			}(),
			field: "incomeClass",
		},
		{
			name: "inflow with unknown income class",
			tx: func() Transaction {
				tx := mkInflow("t1", "a1", "Income", "BONUS", 10_00, d)
				return tx
			}(),
			field: "incomeClass",
		},
		{
			name: "inflow without category",
			tx: func() Transaction {
				tx := mkInflow("t1", "a1", "Income", IncomeEarned, 10_00, d)
				tx.Category = nil
				return tx
			}(),
			field: "category",
		},
		{
			name: "transfer without destination",
			tx: func() Transaction {
				tx := mkTransfer("t1", "a1", "a2", 10_00, d)
				tx.ToAccountID = nil
				return tx
			}(),
			field: "toAccountId",
		},
		{
			name:  "transfer to itself",
			tx:    mkTransfer("t1", "a1", "a1", 10_00, d),
			field: "toAccountId",
		},
		{
			name: "transfer with category",
			tx: func() Transaction {
				tx := mkTransfer("t1", "a1", "a2", 10_00, d)
				tx.Category = strptr("Food")
				return tx
			}(),
			field: "category",
		},
		{
			name: "transfer counted in budget",
			tx: func() Transaction {
				tx := mkTransfer("t1", "a1", "a2", 10_00, d)
				tx.AffectsBudget = true
				return tx
			}(),
			field: "affectsBudget",
		},
		{
			name: "adjustment with category",
			tx: func() Transaction {
				tx := mkAdjustment("t1", "a1", 10_00, d)
				tx.Category = strptr("Food")
				return tx
			}(),
			field: "category",
		},
		{
			name: "adjustment counted in budget",
			tx: func() Transaction {
				tx := mkAdjustment("t1", "a1", 10_00, d)
				tx.AffectsBudget = true
				return tx
			}(),
			field: "affectsBudget",
		},
		{
			name: "category source without category",
			tx: func() Transaction {
				tx := mkAdjustment("t1", "a1", 10_00, d)
				src := SourceManual
				tx.CategorySource = &src
				return tx
			}(),
			field: "categorySource",
		},
		{
			name: "unknown category source",
			tx: func() Transaction {
				tx := mkExpense("t1", "a1", "Food", 10_00, d)
				src := CategorySource("guess")
				tx.CategorySource = &src
				return tx
			}(),
			field: "categorySource",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(c.tx)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, c.field, verr.Field)
		})
	}
}

func TestValidateAllowsOptOutOfBudget(t *testing.T) {
	t.Parallel()
	tx := mkExpense("t1", "a1", "Food > Groceries", 10_00, day(2025, 3, 10))
	tx.AffectsBudget = false
	require.NoError(t, Validate(tx))
}

func TestChangeTypeClearsIllegalFields(t *testing.T) {
	t.Parallel()
	d := day(2025, 3, 10)

	got, err := ChangeType(mkExpense("t1", "a1", "Food", 10_00, d), TypeTransfer)
	require.NoError(t, err)
	require.Equal(t, TypeTransfer, got.Type)
	require.Nil(t, got.Category)
	require.Nil(t, got.CategorySource)
	require.Nil(t, got.IncomeClass)
	require.False(t, got.AffectsBudget)

	got, err = ChangeType(mkExpense("t2", "a1", "Food", 10_00, d), TypeInflow)
	require.NoError(t, err)
	require.NotNil(t, got.IncomeClass)
	require.Equal(t, IncomeEarned, *got.IncomeClass)
	require.True(t, got.AffectsBudget)
	require.NoError(t, Validate(got))

	inflow := mkInflow("t3", "a1", "Income > Salary", IncomePassive, 10_00, d)
	got, err = ChangeType(inflow, TypeExpense)
	require.NoError(t, err)
	require.Nil(t, got.IncomeClass)
	require.True(t, got.AffectsBudget)
	require.NoError(t, Validate(got))

	got, err = ChangeType(inflow, TypeAdjustment)
	require.NoError(t, err)
	require.Nil(t, got.Category)
	require.Nil(t, got.IncomeClass)
	require.False(t, got.AffectsBudget)
	require.NoError(t, Validate(got))

	_, err = ChangeType(inflow, "SPEND")
	require.Error(t, err)
}

func TestChangeTypeKeepsIncomeClassOnInflow(t *testing.T) {
	t.Parallel()
	tx := mkInflow("t1", "a1", "Income > Rent", IncomePassive, 10_00, day(2025, 3, 10))
	got, err := ChangeType(tx, TypeInflow)
	require.NoError(t, err)
	require.Equal(t, IncomePassive, *got.IncomeClass)
}
