package service

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

const linkWindowDays = 90

// Linker proposes refund-to-purchase links. It only ever proposes;
// linking is an explicit user action.
type Linker struct {
	Transactions *repository.TransactionRepo
	Log          zerolog.Logger
}

type LinkCandidate struct {
	Transaction ledger.Transaction
	Score       float64
}

// Candidates ranks the plausible purchases behind a refund: EXPENSE
// transactions on the same account within the 90 days before the
// refund, by description similarity with an exact-amount boost.
func (s *Linker) Candidates(ctx context.Context, refundID string) ([]LinkCandidate, error) {
	refund, err := s.refund(ctx, refundID)
	if err != nil {
		return nil, err
	}

	start := refund.Date.AddDate(0, 0, -linkWindowDays)
	end := refund.Date.AddDate(0, 0, 1)
	txs, err := s.Transactions.ListForRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var out []LinkCandidate
	for _, tx := range txs {
		if tx.Type != ledger.TypeExpense || tx.AccountID != refund.AccountID || tx.ID == refund.ID {
			continue
		}
		out = append(out, LinkCandidate{Transaction: tx, Score: linkScore(*refund, tx)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Transaction.Date.After(out[j].Transaction.Date)
	})
	return out, nil
}

// Link records the back-reference on the refund.
func (s *Linker) Link(ctx context.Context, refundID, expenseID string) error {
	refund, err := s.refund(ctx, refundID)
	if err != nil {
		return err
	}
	expense, err := s.Transactions.Get(ctx, expenseID)
	if err != nil {
		return err
	}
	if expense == nil {
		return &ledger.ValidationError{Field: "linkedTransactionId", Reason: "target transaction not found"}
	}
	if expense.Type != ledger.TypeExpense {
		return &ledger.ValidationError{Field: "linkedTransactionId", Reason: "target must be an expense"}
	}
	if expense.ID == refund.ID {
		return &ledger.ValidationError{Field: "linkedTransactionId", Reason: "cannot link a transaction to itself"}
	}
	return s.Transactions.SetLink(ctx, refund.ID, &expense.ID)
}

func (s *Linker) Unlink(ctx context.Context, refundID string) error {
	refund, err := s.refund(ctx, refundID)
	if err != nil {
		return err
	}
	return s.Transactions.SetLink(ctx, refund.ID, nil)
}

func (s *Linker) refund(ctx context.Context, id string) (*ledger.Transaction, error) {
	tx, err := s.Transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &ledger.ValidationError{Field: "id", Reason: "transaction not found"}
	}
	if tx.Type != ledger.TypeInflow || tx.IncomeClass == nil || *tx.IncomeClass != ledger.IncomeReimbursement {
		return nil, &ledger.ValidationError{Field: "incomeClass", Reason: "transaction is not a reimbursement inflow"}
	}
	return tx, nil
}

// linkScore is normalized description similarity in [0,1], plus 0.25
// when the amounts match exactly (partial refunds still rank, full
// refunds rank higher). Capped at 1.
func linkScore(refund, expense ledger.Transaction) float64 {
	score := descriptionSimilarity(refund.Description, expense.Description)
	if refund.AmountCents == expense.AmountCents {
		score += 0.25
	}
	if score > 1 {
		score = 1
	}
	return score
}

func descriptionSimilarity(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
