package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
	"github.com/davenisc/tally/internal/llm"
	"github.com/davenisc/tally/internal/taxonomy"
)

const classifyBatchSize = 50

// Categorizer applies categorization precedence: explicit user choice,
// then the merchant rule cache, then the AI classifier.
type Categorizer struct {
	Transactions *repository.TransactionRepo
	Rules        *repository.MerchantRuleRepo
	Settings     *repository.SettingsRepo
	Classifier   llm.Classifier
	Log          zerolog.Logger
}

type CategorizeResult struct {
	ByRule        int
	ByAI          int
	Dropped       int // invalid suggestions, never persisted
	FailedBatches int
	Remaining     int
}

// CategorizeUncategorized classifies every uncategorized EXPENSE/INFLOW
// row. Rule hits apply immediately; the rest go to the classifier in
// batches of 50, dispatched sequentially. A failed batch is logged and
// skipped; its transactions simply stay uncategorized.
func (s *Categorizer) CategorizeUncategorized(ctx context.Context) (CategorizeResult, error) {
	res := CategorizeResult{}

	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{Uncategorized: true})
	if err != nil {
		return res, err
	}
	if len(txs) == 0 {
		return res, nil
	}

	expenseCats, incomeCats, err := s.vocabulary(ctx)
	if err != nil {
		return res, err
	}

	var pending []ledger.Transaction
	for _, tx := range txs {
		applied, err := s.applyRule(ctx, tx)
		if err != nil {
			return res, err
		}
		if applied {
			res.ByRule++
			continue
		}
		pending = append(pending, tx)
	}

	for start := 0; start < len(pending); start += classifyBatchSize {
		end := start + classifyBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		resp, err := s.Classifier.ClassifyBatch(ctx, llm.ClassifyRequest{
			Transactions:      toInputs(batch),
			ExpenseCategories: expenseCats,
			IncomeCategories:  incomeCats,
		})
		if err != nil {
			s.Log.Warn().Err(err).Int("batch_start", start).Int("batch_size", len(batch)).
				Msg("classification batch failed, continuing")
			res.FailedBatches++
			res.Remaining += len(batch)
			continue
		}

		for i, tx := range batch {
			if i >= len(resp.Suggestions) {
				res.Remaining++
				continue
			}
			switch s.applySuggestion(ctx, tx, resp.Suggestions[i]) {
			case applied:
				res.ByAI++
			case dropped:
				res.Dropped++
			default:
				res.Remaining++
			}
		}
	}

	s.Log.Info().
		Int("by_rule", res.ByRule).
		Int("by_ai", res.ByAI).
		Int("dropped", res.Dropped).
		Int("failed_batches", res.FailedBatches).
		Int("remaining", res.Remaining).
		Msg("categorization pass complete")
	return res, nil
}

// Recategorize is the manual path: sets the category with source
// manual and remembers the choice as a merchant rule.
func (s *Categorizer) Recategorize(ctx context.Context, id, category string) error {
	tx, err := s.Transactions.Get(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return &ledger.ValidationError{Field: "id", Reason: "transaction not found"}
	}

	next := *tx
	src := ledger.SourceManual
	next.Category = &category
	next.CategorySource = &src
	if err := ledger.Validate(next); err != nil {
		return err
	}
	if err := s.Transactions.UpdateCategory(ctx, id, &category, &src); err != nil {
		return err
	}
	return s.rememberRule(ctx, next, category, ledger.SourceManual)
}

// ChangeType rewrites a transaction's type, clearing fields the new
// type forbids and re-deriving affectsBudget.
func (s *Categorizer) ChangeType(ctx context.Context, id string, newType ledger.TransactionType, toAccountID *string) error {
	tx, err := s.Transactions.Get(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return &ledger.ValidationError{Field: "id", Reason: "transaction not found"}
	}

	next, err := ledger.ChangeType(*tx, newType)
	if err != nil {
		return err
	}
	if newType == ledger.TypeTransfer {
		next.ToAccountID = toAccountID
	}
	if next.Category == nil && (newType == ledger.TypeExpense || newType == ledger.TypeInflow) {
		placeholder := ledger.Uncategorized
		next.Category = &placeholder
	}
	if err := ledger.Validate(next); err != nil {
		return err
	}
	return s.Transactions.Update(ctx, next)
}

func (s *Categorizer) applyRule(ctx context.Context, tx ledger.Transaction) (bool, error) {
	if tx.MerchantID == nil {
		return false, nil
	}
	rule, err := s.Rules.ForMerchant(ctx, *tx.MerchantID)
	if err != nil {
		return false, err
	}
	if rule == nil {
		return false, nil
	}

	next := tx
	src := ledger.SourceRule
	next.Category = &rule.Category
	next.CategorySource = &src
	if err := ledger.Validate(next); err != nil {
		s.Log.Warn().Err(err).Str("transaction", tx.ID).Str("rule", rule.ID).
			Msg("rule category invalid for transaction, skipping")
		return false, nil
	}
	if err := s.Transactions.UpdateCategory(ctx, tx.ID, &rule.Category, &src); err != nil {
		return false, err
	}
	return true, nil
}

type suggestionOutcome int

const (
	unapplied suggestionOutcome = iota
	applied
	dropped
)

// applySuggestion takes only the fields the model filled in, then
// re-validates before persisting. Invalid results are dropped, never
// written.
func (s *Categorizer) applySuggestion(ctx context.Context, tx ledger.Transaction, sg llm.Suggestion) suggestionOutcome {
	if sg.Category == "" && sg.Type == "" && sg.IncomeClass == "" {
		return unapplied
	}

	next := tx
	if sg.Type != "" && ledger.TransactionType(sg.Type) != tx.Type {
		changed, err := ledger.ChangeType(next, ledger.TransactionType(sg.Type))
		if err != nil {
			return dropped
		}
		next = changed
	}
	if sg.Category != "" && (next.Type == ledger.TypeExpense || next.Type == ledger.TypeInflow) {
		src := ledger.SourceAI
		next.Category = &sg.Category
		next.CategorySource = &src
	}
	if sg.IncomeClass != "" && next.Type == ledger.TypeInflow {
		class := ledger.IncomeClass(sg.IncomeClass)
		next.IncomeClass = &class
	}
	if next.Category == nil && (next.Type == ledger.TypeExpense || next.Type == ledger.TypeInflow) {
		placeholder := ledger.Uncategorized
		next.Category = &placeholder
	}

	if err := ledger.Validate(next); err != nil {
		s.Log.Warn().Err(err).Str("transaction", tx.ID).Msg("dropping invalid suggestion")
		return dropped
	}
	if err := s.Transactions.Update(ctx, next); err != nil {
		s.Log.Warn().Err(err).Str("transaction", tx.ID).Msg("persisting suggestion failed")
		return dropped
	}
	if next.Category != nil && *next.Category != ledger.Uncategorized {
		if err := s.rememberRule(ctx, next, *next.Category, ledger.SourceAI); err != nil {
			s.Log.Warn().Err(err).Str("transaction", tx.ID).Msg("saving merchant rule failed")
		}
		return applied
	}
	return unapplied
}

func (s *Categorizer) rememberRule(ctx context.Context, tx ledger.Transaction, category string, source ledger.CategorySource) error {
	if tx.MerchantID == nil || category == ledger.Uncategorized {
		return nil
	}
	return s.Rules.Upsert(ctx, ledger.MerchantRule{
		ID:         uuid.NewString(),
		MerchantID: *tx.MerchantID,
		Category:   category,
		Source:     source,
	})
}

// vocabulary splits the active category set into expense and income
// lists: paths under the Income parent are income categories.
func (s *Categorizer) vocabulary(ctx context.Context) (expense, income []string, err error) {
	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, path := range settings.DefaultCategories {
		parent, _ := taxonomy.Parse(path)
		if parent == "Income" {
			income = append(income, path)
		} else {
			expense = append(expense, path)
		}
	}
	return expense, income, nil
}

func toInputs(txs []ledger.Transaction) []llm.TransactionInput {
	out := make([]llm.TransactionInput, len(txs))
	for i, tx := range txs {
		out[i] = llm.TransactionInput{
			Description: tx.Description,
			Merchant:    tx.Merchant,
			AmountCents: tx.AmountCents,
			Date:        tx.Date.Format(time.DateOnly),
			Type:        string(tx.Type),
			Account:     tx.AccountID,
		}
	}
	return out
}
