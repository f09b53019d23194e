// Package ledger holds the domain model and the pure computation over it:
// transaction shape rules, account metrics, budget progress, and period
// summaries. Nothing here touches the store.
package ledger

import "time"

// TransactionType is the closed set of ledger entry kinds.
type TransactionType string

const (
	TypeInflow     TransactionType = "INFLOW"
	TypeExpense    TransactionType = "EXPENSE"
	TypeTransfer   TransactionType = "TRANSFER"
	TypeAdjustment TransactionType = "ADJUSTMENT"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeInflow, TypeExpense, TypeTransfer, TypeAdjustment:
		return true
	}
	return false
}

// IncomeClass is the economic nature of an inflow.
type IncomeClass string

const (
	IncomeEarned        IncomeClass = "EARNED"
	IncomePassive       IncomeClass = "PASSIVE"
	IncomeReimbursement IncomeClass = "REIMBURSEMENT"
	IncomeWindfall      IncomeClass = "WINDFALL"
	IncomeAdjustment    IncomeClass = "ADJUSTMENT"
)

// Valid reports whether c is a known income class.
func (c IncomeClass) Valid() bool {
	switch c {
	case IncomeEarned, IncomePassive, IncomeReimbursement, IncomeWindfall, IncomeAdjustment:
		return true
	}
	return false
}

// Uncategorized is the placeholder category given to imported drafts
// until classification fills a real one. Rows carrying it count as
// uncategorized everywhere.
const Uncategorized = "Uncategorized"

// CategorySource records how a transaction got its category.
type CategorySource string

const (
	SourceAI     CategorySource = "ai"
	SourceManual CategorySource = "manual"
	SourceRule   CategorySource = "rule"
)

// Valid reports whether s is a known category source.
func (s CategorySource) Valid() bool {
	switch s {
	case SourceAI, SourceManual, SourceRule:
		return true
	}
	return false
}

// AccountKind discriminates the account union.
type AccountKind string

const (
	KindBank       AccountKind = "bank"
	KindCreditCard AccountKind = "credit_card"
)

// BankSubtype refines a bank account.
type BankSubtype string

const (
	SubtypeChequing       BankSubtype = "CHEQUING"
	SubtypeSavings        BankSubtype = "SAVINGS"
	SubtypeCash           BankSubtype = "CASH"
	SubtypeInvestmentCash BankSubtype = "INVESTMENT_CASH"
)

// Valid reports whether s is a known bank subtype.
func (s BankSubtype) Valid() bool {
	switch s {
	case SubtypeChequing, SubtypeSavings, SubtypeCash, SubtypeInvestmentCash:
		return true
	}
	return false
}

// PaymentStatus is a credit card's statement state.
type PaymentStatus string

const (
	PaymentOK      PaymentStatus = "OK"
	PaymentDueSoon PaymentStatus = "DUE_SOON"
	PaymentOverdue PaymentStatus = "OVERDUE"
)

// BudgetType is the dimension a budget tracks against.
type BudgetType string

const (
	BudgetCategory    BudgetType = "CATEGORY"
	BudgetSubcategory BudgetType = "SUBCATEGORY"
	BudgetTag         BudgetType = "TAG"
	BudgetMerchant    BudgetType = "MERCHANT"
)

// Valid reports whether b is a known budget type.
func (b BudgetType) Valid() bool {
	switch b {
	case BudgetCategory, BudgetSubcategory, BudgetTag, BudgetMerchant:
		return true
	}
	return false
}

// Transaction is one ledger entry. AmountCents is a non-negative
// magnitude; direction comes from Type.
type Transaction struct {
	ID                  string          `json:"id"`
	Type                TransactionType `json:"type"`
	AccountID           string          `json:"accountId"`
	ToAccountID         *string         `json:"toAccountId,omitempty"` // destination account; transfers only
	Date                time.Time       `json:"date"`
	Description         string          `json:"description"`
	MerchantID          *string         `json:"merchantId,omitempty"`
	Merchant            string          `json:"merchant,omitempty"` // legacy free-text merchant, kept for reads
	AmountCents         int64           `json:"amountCents"`
	Category            *string         `json:"category,omitempty"`
	CategorySource      *CategorySource `json:"categorySource,omitempty"`
	IncomeClass         *IncomeClass    `json:"incomeClass,omitempty"`
	AffectsBudget       bool            `json:"affectsBudget"`
	LinkedTransactionID *string         `json:"linkedTransactionId,omitempty"`
	ImportedAt          *time.Time      `json:"importedAt,omitempty"`
	SourceFile          *string         `json:"sourceFile,omitempty"`
	SourceHash          *string         `json:"sourceHash,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// Account is a tracked account. Exactly one of Bank/CreditCard is set,
// matching Kind.
type Account struct {
	ID          string            `json:"id"`
	Kind        AccountKind       `json:"kind"`
	Name        string            `json:"name"`
	Color       string            `json:"color,omitempty"`
	Institution string            `json:"institution,omitempty"`
	Currency    string            `json:"currency"`
	IsDefault   bool              `json:"isDefault"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	Bank        *BankDetail       `json:"bank,omitempty"`
	CreditCard  *CreditCardDetail `json:"creditCard,omitempty"`
}

// BankDetail is the bank-side account detail.
type BankDetail struct {
	Subtype               BankSubtype `json:"subtype"`
	CurrentBalanceCents   int64       `json:"currentBalanceCents"`
	AvailableBalanceCents int64       `json:"availableBalanceCents"`
}

// CreditCardDetail is the card-side account detail. CurrentBalanceCents
// is the amount owed, non-negative.
type CreditCardDetail struct {
	Issuer                string        `json:"issuer"`
	CreditLimitCents      int64         `json:"creditLimitCents"`
	CurrentBalanceCents   int64         `json:"currentBalanceCents"`
	AvailableCreditCents  int64         `json:"availableCreditCents"`
	StatementDay          int           `json:"statementDay"` // 1-31
	DueDay                int           `json:"dueDay"`       // 1-31
	APRPercent            float64       `json:"aprPercent"`
	CashAdvanceAPRPercent float64       `json:"cashAdvanceAprPercent"`
	PaymentStatus         PaymentStatus `json:"paymentStatus"`
}

// MerchantRule remembers a merchant-to-category mapping, consulted
// before any AI call. One rule per merchant; later writes win.
type MerchantRule struct {
	ID         string         `json:"id"`
	MerchantID string         `json:"merchantId"`
	Category   string         `json:"category"`
	Source     CategorySource `json:"source"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Budget tracks monthly spend against a limit on one target dimension.
type Budget struct {
	ID                    string     `json:"id"`
	Type                  BudgetType `json:"type"`
	TargetID              string     `json:"targetId"` // category path, tag id, or merchant id per Type
	MonthlyLimitCents     int64      `json:"monthlyLimitCents"`
	AlertThresholdPercent float64    `json:"alertThresholdPercent"`
	AccountID             *string    `json:"accountId,omitempty"` // optional scope
	CreatedAt             time.Time  `json:"createdAt"`
}

// Merchant is one distinct payee.
type Merchant struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Category string   `json:"category,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Tag labels transactions across category lines.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Settings is the singleton application record.
type Settings struct {
	APIKey            string   `json:"apiKey,omitempty"`
	DefaultCategories []string `json:"defaultCategories"`
	Currency          string   `json:"currency"`
}
