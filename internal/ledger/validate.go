package ledger

import (
	"fmt"

	"github.com/davenisc/tally/internal/taxonomy"
)

// ValidationError reports a field that violates the shape rules for a
// transaction's type. It is surfaced to the initiating action and never
// persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: %s %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate enforces the per-type field rules. It runs before every insert
// and before persisting any field change; a transaction that fails here
// must not reach the store.
func Validate(t Transaction) error {
	if !t.Type.Valid() {
		return invalid("type", "is not a known transaction type")
	}
	if t.AmountCents < 0 {
		return invalid("amountCents", "must be non-negative")
	}
	if t.AccountID == "" {
		return invalid("accountId", "is required")
	}
	if t.Date.IsZero() {
		return invalid("date", "is required")
	}
	if t.CategorySource != nil {
		if !t.CategorySource.Valid() {
			return invalid("categorySource", "is not a known source")
		}
		if t.Category == nil {
			return invalid("categorySource", "requires a category")
		}
	}

	switch t.Type {
	case TypeTransfer:
		if t.ToAccountID == nil || *t.ToAccountID == "" {
			return invalid("toAccountId", "is required for transfers")
		}
		if *t.ToAccountID == t.AccountID {
			return invalid("toAccountId", "must differ from accountId")
		}
		if t.Category != nil {
			return invalid("category", "must be empty for transfers")
		}
		if t.IncomeClass != nil {
			return invalid("incomeClass", "must be empty for transfers")
		}
		if t.AffectsBudget {
			return invalid("affectsBudget", "must be false for transfers")
		}
	case TypeExpense:
		if t.ToAccountID != nil {
			return invalid("toAccountId", "must be empty for expenses")
		}
		if t.IncomeClass != nil {
			return invalid("incomeClass", "must be empty for expenses")
		}
		if t.Category == nil {
			return invalid("category", "is required for expenses")
		}
		if !taxonomy.IsValid(*t.Category) {
			return invalid("category", "is not a valid category path")
		}
	case TypeInflow:
		if t.ToAccountID != nil {
			return invalid("toAccountId", "must be empty for inflows")
		}
		if t.Category == nil {
			return invalid("category", "is required for inflows")
		}
		if !taxonomy.IsValid(*t.Category) {
			return invalid("category", "is not a valid category path")
		}
		if t.IncomeClass == nil {
			return invalid("incomeClass", "is required for inflows")
		}
		if !t.IncomeClass.Valid() {
			return invalid("incomeClass", "is not a known income class")
		}
	case TypeAdjustment:
		if t.ToAccountID != nil {
			return invalid("toAccountId", "must be empty for adjustments")
		}
		if t.Category != nil {
			return invalid("category", "must be empty for adjustments")
		}
		if t.IncomeClass != nil {
			return invalid("incomeClass", "must be empty for adjustments")
		}
		if t.AffectsBudget {
			return invalid("affectsBudget", "must be false for adjustments")
		}
	}
	return nil
}

// ChangeType rewrites a transaction to newType: fields the new type
// forbids are cleared, AffectsBudget is re-derived, and an inflow with no
// income class defaults to EARNED. A change to TRANSFER still needs a
// destination account before the result validates.
func ChangeType(t Transaction, newType TransactionType) (Transaction, error) {
	if !newType.Valid() {
		return Transaction{}, invalid("type", "is not a known transaction type")
	}
	t.Type = newType
	switch newType {
	case TypeInflow:
		t.ToAccountID = nil
		if t.IncomeClass == nil {
			cls := IncomeEarned
			t.IncomeClass = &cls
		}
		t.AffectsBudget = true
	case TypeExpense:
		t.ToAccountID = nil
		t.IncomeClass = nil
		t.AffectsBudget = true
	case TypeTransfer:
		t.Category = nil
		t.CategorySource = nil
		t.IncomeClass = nil
		t.AffectsBudget = false
	case TypeAdjustment:
		t.ToAccountID = nil
		t.Category = nil
		t.CategorySource = nil
		t.IncomeClass = nil
		t.AffectsBudget = false
	}
	return t, nil
}
