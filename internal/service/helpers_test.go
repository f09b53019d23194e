package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/davenisc/tally/internal/database"
	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
	"github.com/davenisc/tally/internal/llm"
)

func newStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func seedAccount(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()
	require.NoError(t, repository.NewAccountRepo(db).Insert(context.Background(), ledger.Account{
		ID: id, Kind: ledger.KindBank, Name: name, Currency: "CAD", IsActive: true,
		Bank: &ledger.BankDetail{Subtype: ledger.SubtypeChequing},
	}))
}

func seedExpense(t *testing.T, db *sql.DB, id, account string, date time.Time, amount int64, category string) {
	t.Helper()
	src := ledger.SourceManual
	require.NoError(t, repository.NewTransactionRepo(db).Insert(context.Background(), ledger.Transaction{
		ID: id, Type: ledger.TypeExpense, AccountID: account, Date: date,
		Description: "purchase " + id, AmountCents: amount,
		Category: &category, CategorySource: &src, AffectsBudget: true,
	}))
}

func nopLog() zerolog.Logger { return zerolog.Nop() }

// fakeClassifier scripts ClassifyBatch per call number.
type fakeClassifier struct {
	calls    int
	requests []llm.ClassifyRequest
	respond  func(call int, req llm.ClassifyRequest) (llm.ClassifyResponse, error)
}

func (f *fakeClassifier) ClassifyBatch(_ context.Context, req llm.ClassifyRequest) (llm.ClassifyResponse, error) {
	f.calls++
	f.requests = append(f.requests, req)
	return f.respond(f.calls, req)
}
