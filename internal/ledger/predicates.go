package ledger

// AffectsSpending reports whether t counts toward spending totals.
func AffectsSpending(t Transaction) bool {
	return t.Type == TypeExpense && t.AffectsBudget
}

// AffectsIncome reports whether t counts toward income totals. Only
// earned and passive inflows count; reimbursements and windfalls are
// tracked separately.
func AffectsIncome(t Transaction) bool {
	if t.Type != TypeInflow || !t.AffectsBudget || t.IncomeClass == nil {
		return false
	}
	return *t.IncomeClass == IncomeEarned || *t.IncomeClass == IncomePassive
}

// AffectsCashFlow reports whether t moves money into or out of the
// ledger as a whole. Transfers shuffle between accounts; adjustments
// are corrections.
func AffectsCashFlow(t Transaction) bool {
	return t.Type == TypeInflow || t.Type == TypeExpense
}

// AffectsNetWorth reports whether t changes total net worth.
func AffectsNetWorth(t Transaction) bool {
	return t.Type != TypeAdjustment
}
