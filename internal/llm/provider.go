// Package llm defines the classifier boundary. Services talk to the
// Classifier interface only; the concrete provider behind it is wired
// at startup.
package llm

import "context"

// Classifier suggests categorization for a batch of transactions.
type Classifier interface {
	ClassifyBatch(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error)
}

// ClassifyRequest carries one batch of transactions plus the active
// category vocabulary. The classifier may only suggest paths from the
// vocabulary; anything else is discarded.
type ClassifyRequest struct {
	Transactions      []TransactionInput `json:"transactions"`
	ExpenseCategories []string           `json:"expense_categories"`
	IncomeCategories  []string           `json:"income_categories"`
}

type TransactionInput struct {
	Description string `json:"description"`
	Merchant    string `json:"merchant,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Account     string `json:"account,omitempty"`
}

// ClassifyResponse holds one suggestion per input, same order. Empty
// fields mean the model had no confident answer for that field.
type ClassifyResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

type Suggestion struct {
	Category    string `json:"category,omitempty"`
	Type        string `json:"type,omitempty"`
	IncomeClass string `json:"income_class,omitempty"`
}
