package ledger

import (
	"fmt"
	"strings"
)

// BankMetrics summarizes a period for one bank account.
type BankMetrics struct {
	TotalIncomeCents    int64 `json:"totalIncomeCents"`
	TotalSpendingCents  int64 `json:"totalSpendingCents"`
	NetCashFlowCents    int64 `json:"netCashFlowCents"`
	EarnedIncomeCents   int64 `json:"earnedIncomeCents"`
	PassiveIncomeCents  int64 `json:"passiveIncomeCents"`
	ReimbursementCents  int64 `json:"reimbursementCents"`
	TransferVolumeCents int64 `json:"transferVolumeCents"`
}

// CardMetrics summarizes a period for one credit card. Utilization is
// nil when the account has no positive credit limit.
type CardMetrics struct {
	SpendCents         int64    `json:"spendCents"`
	PaymentsCents      int64    `json:"paymentsCents"`
	InterestCents      int64    `json:"interestCents"`
	FeeCents           int64    `json:"feeCents"`
	RefundCents        int64    `json:"refundCents"`
	UtilizationPercent *float64 `json:"utilizationPercent,omitempty"`
}

// Metrics carries the kind-specific period metrics for one account.
type Metrics struct {
	AccountID string       `json:"accountId"`
	Kind      AccountKind  `json:"kind"`
	Bank      *BankMetrics `json:"bank,omitempty"`
	Card      *CardMetrics `json:"card,omitempty"`
}

// ComputeMetrics dispatches on account kind. txs may be the full period
// set; rows not touching the account are ignored.
func ComputeMetrics(a Account, txs []Transaction) (Metrics, error) {
	switch a.Kind {
	case KindBank:
		m := computeBankMetrics(a, txs)
		return Metrics{AccountID: a.ID, Kind: a.Kind, Bank: &m}, nil
	case KindCreditCard:
		m := computeCardMetrics(a, txs)
		return Metrics{AccountID: a.ID, Kind: a.Kind, Card: &m}, nil
	default:
		return Metrics{}, fmt.Errorf("unknown account kind %q", a.Kind)
	}
}

func touches(t Transaction, accountID string) bool {
	if t.AccountID == accountID {
		return true
	}
	return t.ToAccountID != nil && *t.ToAccountID == accountID
}

func computeBankMetrics(a Account, txs []Transaction) BankMetrics {
	var m BankMetrics
	for _, t := range txs {
		if !touches(t, a.ID) {
			continue
		}
		if t.Type == TypeTransfer {
			m.TransferVolumeCents += t.AmountCents
			continue
		}
		if t.AccountID != a.ID {
			continue
		}
		if AffectsSpending(t) {
			m.TotalSpendingCents += t.AmountCents
		}
		if AffectsIncome(t) {
			m.TotalIncomeCents += t.AmountCents
		}
		if t.Type == TypeInflow && t.AffectsBudget && t.IncomeClass != nil {
			switch *t.IncomeClass {
			case IncomeEarned:
				m.EarnedIncomeCents += t.AmountCents
			case IncomePassive:
				m.PassiveIncomeCents += t.AmountCents
			case IncomeReimbursement:
				m.ReimbursementCents += t.AmountCents
			}
		}
	}
	m.NetCashFlowCents = m.TotalIncomeCents - m.TotalSpendingCents
	return m
}

func computeCardMetrics(a Account, txs []Transaction) CardMetrics {
	var m CardMetrics
	for _, t := range txs {
		switch t.Type {
		case TypeExpense:
			if t.AccountID != a.ID {
				continue
			}
			m.SpendCents += t.AmountCents
			if t.Category != nil {
				lower := strings.ToLower(*t.Category)
				if strings.Contains(lower, "interest") {
					m.InterestCents += t.AmountCents
				}
				if strings.Contains(lower, "fee") {
					m.FeeCents += t.AmountCents
				}
			}
		case TypeTransfer:
			if t.ToAccountID != nil && *t.ToAccountID == a.ID {
				m.PaymentsCents += t.AmountCents
			}
		case TypeInflow:
			if t.AccountID != a.ID {
				continue
			}
			if t.IncomeClass != nil && *t.IncomeClass == IncomeReimbursement {
				m.RefundCents += t.AmountCents
			}
		}
	}
	if cc := a.CreditCard; cc != nil && cc.CreditLimitCents > 0 {
		u := float64(cc.CurrentBalanceCents) * 100 / float64(cc.CreditLimitCents)
		m.UtilizationPercent = &u
	}
	return m
}

// GlobalSpending sums spending across all accounts for the period.
func GlobalSpending(txs []Transaction) int64 {
	var total int64
	for _, t := range txs {
		if AffectsSpending(t) {
			total += t.AmountCents
		}
	}
	return total
}

// GlobalIncome sums earned and passive income across all accounts.
// Reimbursements join the total only when asked for.
func GlobalIncome(txs []Transaction, includeReimbursements bool) int64 {
	var total int64
	for _, t := range txs {
		if AffectsIncome(t) {
			total += t.AmountCents
			continue
		}
		if includeReimbursements && t.Type == TypeInflow && t.AffectsBudget &&
			t.IncomeClass != nil && *t.IncomeClass == IncomeReimbursement {
			total += t.AmountCents
		}
	}
	return total
}

// CreditCardPayments sums transfers whose destination is a credit card.
// A payment is a transfer, not an expense on either side, so each one
// counts exactly once.
func CreditCardPayments(txs []Transaction, accounts []Account) int64 {
	cards := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		if a.Kind == KindCreditCard {
			cards[a.ID] = true
		}
	}
	var total int64
	for _, t := range txs {
		if t.Type != TypeTransfer || t.ToAccountID == nil {
			continue
		}
		if cards[*t.ToAccountID] {
			total += t.AmountCents
		}
	}
	return total
}
