package ledger

import (
	"sort"
	"time"
)

// IncomeSummary buckets period inflows by class. TotalCents sums all
// four buckets; the account metrics engine's TotalIncome deliberately
// does not, because recurring income and net-worth income are different
// questions.
type IncomeSummary struct {
	EarnedCents        int64 `json:"earnedCents"`
	PassiveCents       int64 `json:"passiveCents"`
	ReimbursementCents int64 `json:"reimbursementCents"`
	WindfallCents      int64 `json:"windfallCents"`
	TotalCents         int64 `json:"totalCents"`
}

// ExpenseSummary totals period spending with a per-category breakdown.
type ExpenseSummary struct {
	TotalCents int64            `json:"totalCents"`
	ByCategory map[string]int64 `json:"byCategory,omitempty"`
}

// FlowSummary is raw volume and count for transfers or adjustments.
type FlowSummary struct {
	TotalCents int64 `json:"totalCents"`
	Count      int   `json:"count"`
}

// Summary is the whole-period picture across all accounts.
type Summary struct {
	Income              IncomeSummary  `json:"income"`
	Expenses            ExpenseSummary `json:"expenses"`
	Transfers           FlowSummary    `json:"transfers"`
	Adjustments         FlowSummary    `json:"adjustments"`
	NetWorthChangeCents int64          `json:"netWorthChangeCents"`
	CashFlowCents       int64          `json:"cashFlowCents"` // total volume moved, not a net
}

// Summarize rolls up one period's transactions. Pure; safe to re-run on
// every render.
func Summarize(txs []Transaction) Summary {
	var s Summary
	s.Expenses.ByCategory = make(map[string]int64)

	for _, t := range txs {
		switch t.Type {
		case TypeInflow:
			if !t.AffectsBudget || t.IncomeClass == nil {
				continue
			}
			switch *t.IncomeClass {
			case IncomeEarned:
				s.Income.EarnedCents += t.AmountCents
			case IncomePassive:
				s.Income.PassiveCents += t.AmountCents
			case IncomeReimbursement:
				s.Income.ReimbursementCents += t.AmountCents
			case IncomeWindfall:
				s.Income.WindfallCents += t.AmountCents
			}
		case TypeExpense:
			if !t.AffectsBudget {
				continue
			}
			s.Expenses.TotalCents += t.AmountCents
			if t.Category != nil {
				s.Expenses.ByCategory[*t.Category] += t.AmountCents
			}
		case TypeTransfer:
			s.Transfers.TotalCents += t.AmountCents
			s.Transfers.Count++
		case TypeAdjustment:
			s.Adjustments.TotalCents += t.AmountCents
			s.Adjustments.Count++
		}
	}

	s.Income.TotalCents = s.Income.EarnedCents + s.Income.PassiveCents +
		s.Income.ReimbursementCents + s.Income.WindfallCents
	s.NetWorthChangeCents = s.Income.TotalCents - s.Expenses.TotalCents
	s.CashFlowCents = s.Income.TotalCents + s.Expenses.TotalCents + s.Transfers.TotalCents
	return s
}

// Slice is one named share of a total.
type Slice struct {
	Name        string  `json:"name"`
	AmountCents int64   `json:"amountCents"`
	Percentage  float64 `json:"percentage"`
}

// IncomeSources projects the non-zero income buckets as shares of
// Income.TotalCents, descending by amount.
func (s Summary) IncomeSources() []Slice {
	buckets := []Slice{
		{Name: "Earned", AmountCents: s.Income.EarnedCents},
		{Name: "Passive", AmountCents: s.Income.PassiveCents},
		{Name: "Reimbursement", AmountCents: s.Income.ReimbursementCents},
		{Name: "Windfall", AmountCents: s.Income.WindfallCents},
	}
	return toSlices(buckets, s.Income.TotalCents)
}

// ExpenseCategories projects the non-zero per-category expense totals as
// shares of Expenses.TotalCents, descending by amount.
func (s Summary) ExpenseCategories() []Slice {
	buckets := make([]Slice, 0, len(s.Expenses.ByCategory))
	for name, cents := range s.Expenses.ByCategory {
		buckets = append(buckets, Slice{Name: name, AmountCents: cents})
	}
	return toSlices(buckets, s.Expenses.TotalCents)
}

func toSlices(buckets []Slice, total int64) []Slice {
	out := make([]Slice, 0, len(buckets))
	for _, b := range buckets {
		if b.AmountCents == 0 {
			continue
		}
		if total > 0 {
			b.Percentage = float64(b.AmountCents) * 100 / float64(total)
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AmountCents != out[j].AmountCents {
			return out[i].AmountCents > out[j].AmountCents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthSummary is one month's rollup in a trend series.
type MonthSummary struct {
	Month   string  `json:"month"` // "2006-01"
	Summary Summary `json:"summary"`
}

// MonthlySeries rolls a summary per calendar month from the month of
// `from` through the month of `to`, inclusive. Months with no activity
// produce zero summaries, so a plotted series has no gaps.
func MonthlySeries(txs []Transaction, from, to time.Time) []MonthSummary {
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out []MonthSummary
	for cur := start; !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		end := cur.AddDate(0, 1, 0)
		var bucket []Transaction
		for _, t := range txs {
			if !t.Date.Before(cur) && t.Date.Before(end) {
				bucket = append(bucket, t)
			}
		}
		out = append(out, MonthSummary{Month: cur.Format("2006-01"), Summary: Summarize(bucket)})
	}
	return out
}
