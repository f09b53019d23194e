package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

func TestBulkRecategorize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newStore(t)
	seedAccount(t, db, "a1", "Chequing")
	txRepo := repository.NewTransactionRepo(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(t, db, "t1", "a1", day, 10_00, "Shopping")
	seedExpense(t, db, "t2", "a1", day, 20_00, "Shopping")

	svc := &Bulk{Transactions: txRepo, Log: nopLog()}
	res, err := svc.Recategorize(ctx, []string{"t1", "t2"}, "Food > Groceries")
	require.NoError(t, err)
	require.NoError(t, res.Err())
	sort.Strings(res.Succeeded)
	require.Equal(t, []string{"t1", "t2"}, res.Succeeded)
	require.Empty(t, res.Failed)

	for _, id := range []string{"t1", "t2"} {
		got, err := txRepo.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Food > Groceries", *got.Category)
		require.Equal(t, ledger.SourceManual, *got.CategorySource)
	}
}

func TestBulkChangeType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newStore(t)
	seedAccount(t, db, "a1", "Chequing")
	txRepo := repository.NewTransactionRepo(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(t, db, "t1", "a1", day, 10_00, "Shopping")
	seedExpense(t, db, "t2", "a1", day, 20_00, "Shopping")

	svc := &Bulk{Transactions: txRepo, Log: nopLog()}
	res, err := svc.ChangeType(ctx, []string{"t1", "t2"}, ledger.TypeInflow)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.Len(t, res.Succeeded, 2)

	for _, id := range []string{"t1", "t2"} {
		got, err := txRepo.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, ledger.TypeInflow, got.Type)
		require.Equal(t, ledger.IncomeEarned, *got.IncomeClass)
		require.Equal(t, "Shopping", *got.Category, "category survives the flip")
	}
}

func TestBulkAbortsBeforeAnyWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newStore(t)
	seedAccount(t, db, "a1", "Chequing")
	txRepo := repository.NewTransactionRepo(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(t, db, "t1", "a1", day, 10_00, "Shopping")
	seedExpense(t, db, "t2", "a1", day, 20_00, "Shopping")

	svc := &Bulk{Transactions: txRepo, Log: nopLog()}

	// Transfers need a destination no bulk edit can supply, so staging
	// rejects the whole batch.
	_, err := svc.ChangeType(ctx, []string{"t1", "t2"}, ledger.TypeTransfer)
	require.Error(t, err)
	require.ErrorContains(t, err, "toAccountId")

	// A missing id mid-list aborts the same way.
	_, err = svc.Recategorize(ctx, []string{"t1", "missing", "t2"}, "Travel")
	require.Error(t, err)
	require.ErrorContains(t, err, "missing")

	// An invalid category aborts before writes as well.
	_, err = svc.Recategorize(ctx, []string{"t1", "t2"}, "A > B > C")
	require.Error(t, err)

	for _, id := range []string{"t1", "t2"} {
		got, err := txRepo.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, ledger.TypeExpense, got.Type)
		require.Equal(t, "Shopping", *got.Category)
	}
}
