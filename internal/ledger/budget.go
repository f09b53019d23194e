package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davenisc/tally/internal/taxonomy"
)

// ErrNonPositiveLimit is returned for budgets whose monthly limit is
// zero or negative; percentages over such a limit are undefined.
var ErrNonPositiveLimit = errors.New("budget monthly limit must be positive")

// BudgetStatus is month-to-date progress against one budget.
type BudgetStatus struct {
	Budget         Budget
	Month          string
	SpentCents     int64
	RemainingCents int64 // limit - spent; negative when over
	Percentage     float64
	IsOverBudget   bool
	IsNearLimit    bool // also true when over; callers check IsOverBudget first
}

// MonthRange returns the [start, end) bracket for a "2006-01" month key.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse month key %q: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// BudgetProgress computes spend against one budget for a calendar month.
// txs may be the full ledger; rows outside the month, outside the
// budget's account scope, or not matching its target are ignored. Only
// spending rows count: never income, transfers, or adjustments.
// tagsByTx maps transaction ids to tag ids and is consulted for tag
// budgets only.
func BudgetProgress(b Budget, txs []Transaction, month string, tagsByTx map[string][]string) (BudgetStatus, error) {
	if b.MonthlyLimitCents <= 0 {
		return BudgetStatus{}, ErrNonPositiveLimit
	}
	start, end, err := MonthRange(month)
	if err != nil {
		return BudgetStatus{}, err
	}

	var spent int64
	for _, t := range txs {
		if !AffectsSpending(t) {
			continue
		}
		if t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		if b.AccountID != nil && t.AccountID != *b.AccountID {
			continue
		}
		if !budgetMatches(b, t, tagsByTx) {
			continue
		}
		spent += t.AmountCents
	}

	pct := float64(spent) * 100 / float64(b.MonthlyLimitCents)
	return BudgetStatus{
		Budget:         b,
		Month:          month,
		SpentCents:     spent,
		RemainingCents: b.MonthlyLimitCents - spent,
		Percentage:     pct,
		IsOverBudget:   spent > b.MonthlyLimitCents,
		IsNearLimit:    pct >= b.AlertThresholdPercent,
	}, nil
}

func budgetMatches(b Budget, t Transaction, tagsByTx map[string][]string) bool {
	switch b.Type {
	case BudgetCategory:
		return t.Category != nil && taxonomy.MatchesFilter(*t.Category, b.TargetID, true)
	case BudgetSubcategory:
		return t.Category != nil && *t.Category == b.TargetID
	case BudgetTag:
		for _, id := range tagsByTx[t.ID] {
			if id == b.TargetID {
				return true
			}
		}
		return false
	case BudgetMerchant:
		return t.MerchantID != nil && *t.MerchantID == b.TargetID
	default:
		return false
	}
}
