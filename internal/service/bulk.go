package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

// Bulk applies one change across many transactions with
// collect-then-commit semantics: every staged transaction validates
// before any write fires, writes run concurrently, and the result
// reports exactly which ids persisted. Callers must re-read from the
// store after a partial failure instead of assuming their view.
type Bulk struct {
	Transactions *repository.TransactionRepo
	Log          zerolog.Logger
}

type BulkResult struct {
	Succeeded []string
	Failed    map[string]error
}

func (r BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d writes failed", len(r.Failed), len(r.Failed)+len(r.Succeeded))
}

// Recategorize sets one category across ids.
func (s *Bulk) Recategorize(ctx context.Context, ids []string, category string) (BulkResult, error) {
	return s.commit(ctx, ids, func(tx ledger.Transaction) (ledger.Transaction, error) {
		src := ledger.SourceManual
		tx.Category = &category
		tx.CategorySource = &src
		return tx, nil
	})
}

// ChangeType rewrites the type across ids. Targets that would need
// extra input to stay valid (a TRANSFER destination) fail staging.
func (s *Bulk) ChangeType(ctx context.Context, ids []string, newType ledger.TransactionType) (BulkResult, error) {
	return s.commit(ctx, ids, func(tx ledger.Transaction) (ledger.Transaction, error) {
		next, err := ledger.ChangeType(tx, newType)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if next.Category == nil && (newType == ledger.TypeExpense || newType == ledger.TypeInflow) {
			placeholder := ledger.Uncategorized
			next.Category = &placeholder
		}
		return next, nil
	})
}

// commit stages every target first: any missing id or validation
// failure aborts before a single write is issued. Then all writes fire
// concurrently and the result reflects what actually landed.
func (s *Bulk) commit(ctx context.Context, ids []string, stage func(ledger.Transaction) (ledger.Transaction, error)) (BulkResult, error) {
	res := BulkResult{Failed: make(map[string]error)}

	staged := make([]ledger.Transaction, 0, len(ids))
	for _, id := range ids {
		tx, err := s.Transactions.Get(ctx, id)
		if err != nil {
			return res, err
		}
		if tx == nil {
			return res, fmt.Errorf("transaction %s not found", id)
		}
		next, err := stage(*tx)
		if err != nil {
			return res, fmt.Errorf("transaction %s: %w", id, err)
		}
		if err := ledger.Validate(next); err != nil {
			return res, fmt.Errorf("transaction %s: %w", id, err)
		}
		staged = append(staged, next)
	}

	errs := make([]error, len(staged))
	var wg sync.WaitGroup
	for i := range staged {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Transactions.Update(ctx, staged[i])
		}(i)
	}
	wg.Wait()

	for i, tx := range staged {
		if errs[i] != nil {
			res.Failed[tx.ID] = errs[i]
			continue
		}
		res.Succeeded = append(res.Succeeded, tx.ID)
	}
	if len(res.Failed) > 0 {
		s.Log.Error().Int("failed", len(res.Failed)).Int("succeeded", len(res.Succeeded)).
			Msg("bulk write partially failed; refresh from store")
	}
	return res, nil
}
