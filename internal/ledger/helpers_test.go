package ledger

import "time"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strptr(s string) *string { return &s }

func mkExpense(id, account, category string, cents int64, date time.Time) Transaction {
	return Transaction{
		ID:            id,
		Type:          TypeExpense,
		AccountID:     account,
		Date:          date,
		Description:   "test expense",
		AmountCents:   cents,
		Category:      &category,
		AffectsBudget: true,
	}
}

func mkInflow(id, account, category string, class IncomeClass, cents int64, date time.Time) Transaction {
	return Transaction{
		ID:            id,
		Type:          TypeInflow,
		AccountID:     account,
		Date:          date,
		Description:   "test inflow",
		AmountCents:   cents,
		Category:      &category,
		IncomeClass:   &class,
		AffectsBudget: true,
	}
}

func mkTransfer(id, from, to string, cents int64, date time.Time) Transaction {
	return Transaction{
		ID:          id,
		Type:        TypeTransfer,
		AccountID:   from,
		ToAccountID: &to,
		Date:        date,
		Description: "test transfer",
		AmountCents: cents,
	}
}

func mkAdjustment(id, account string, cents int64, date time.Time) Transaction {
	return Transaction{
		ID:          id,
		Type:        TypeAdjustment,
		AccountID:   account,
		Date:        date,
		Description: "test adjustment",
		AmountCents: cents,
	}
}

func bankAccount(id, name string) Account {
	return Account{
		ID:       id,
		Kind:     KindBank,
		Name:     name,
		Currency: "CAD",
		IsActive: true,
		Bank:     &BankDetail{Subtype: SubtypeChequing},
	}
}

func cardAccount(id, name string, limitCents, balanceCents int64) Account {
	return Account{
		ID:       id,
		Kind:     KindCreditCard,
		Name:     name,
		Currency: "CAD",
		IsActive: true,
		CreditCard: &CreditCardDetail{
			Issuer:              "Visa",
			CreditLimitCents:    limitCents,
			CurrentBalanceCents: balanceCents,
			PaymentStatus:       PaymentOK,
		},
	}
}
