// Package testdata populates a store with plausible sample records so a
// fresh install has something to report on.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/davenisc/tally/internal/database"
	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

// Repos bundles the repositories Seed writes through.
type Repos struct {
	Accounts     *repository.AccountRepo
	Merchants    *repository.MerchantRepo
	Transactions *repository.TransactionRepo
	Rules        *repository.MerchantRuleRepo
	Budgets      *repository.BudgetRepo
	Tags         *repository.TagRepo
}

type demoMerchant struct {
	name     string
	category string
	lowCents int64
	hiCents  int64
}

var demoMerchants = []demoMerchant{
	{"METRO", "Food > Groceries", 30_00, 160_00},
	{"TIM HORTONS", "Food > Restaurants", 4_00, 18_00},
	{"AMAZON.CA", "Shopping", 12_00, 140_00},
	{"NETFLIX.COM", "Bills > Subscriptions", 16_99, 16_99},
	{"SHELL CANADA", "Transport", 40_00, 90_00},
	{"HYDRO ONE", "Bills > Utilities", 80_00, 140_00},
}

// Seed writes three months of sample activity: a chequing account and a
// credit card, salary inflows, card spending with remembered rules, a
// monthly card payment, one tagged refund pair, and a grocery budget.
// A fixed rand source keeps repeated runs identical.
func Seed(ctx context.Context, repos Repos) error {
	rng := rand.New(rand.NewSource(7))

	chequing := ledger.Account{
		ID: uuid.NewString(), Name: "Demo Chequing", Kind: ledger.KindBank,
		Currency: "CAD", IsDefault: true, IsActive: true,
		Bank: &ledger.BankDetail{Subtype: ledger.SubtypeChequing},
	}
	card := ledger.Account{
		ID: uuid.NewString(), Name: "Demo Visa", Kind: ledger.KindCreditCard,
		Currency: "CAD", IsActive: true,
		CreditCard: &ledger.CreditCardDetail{CreditLimitCents: 5000_00, StatementDay: 21, DueDay: 14},
	}
	for _, a := range []ledger.Account{chequing, card} {
		if err := repos.Accounts.Insert(ctx, a); err != nil {
			return fmt.Errorf("seed account %s: %w", a.Name, err)
		}
	}

	for _, m := range demoMerchants {
		id := database.MerchantID(m.name)
		if err := repos.Merchants.Upsert(ctx, ledger.Merchant{ID: id, Name: m.name}); err != nil {
			return fmt.Errorf("seed merchant %s: %w", m.name, err)
		}
		rule := ledger.MerchantRule{ID: uuid.NewString(), MerchantID: id, Category: m.category, Source: ledger.SourceManual}
		if err := repos.Rules.Upsert(ctx, rule); err != nil {
			return fmt.Errorf("seed rule %s: %w", m.name, err)
		}
	}

	monthStart := func(offset int) time.Time {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -offset, 0)
	}

	insert := func(tx ledger.Transaction) error {
		if err := ledger.Validate(tx); err != nil {
			return err
		}
		return repos.Transactions.Insert(ctx, tx)
	}

	src := ledger.SourceRule
	for month := 2; month >= 0; month-- {
		start := monthStart(month)

		salaryCat := "Income > Salary"
		class := ledger.IncomeEarned
		if err := insert(ledger.Transaction{
			ID: uuid.NewString(), Type: ledger.TypeInflow, AccountID: chequing.ID,
			Date: start, Description: "PAYROLL ACME LTD",
			AmountCents: 4200_00, Category: &salaryCat, CategorySource: &src,
			IncomeClass: &class, AffectsBudget: true,
		}); err != nil {
			return err
		}

		for i := 0; i < 12; i++ {
			m := demoMerchants[rng.Intn(len(demoMerchants))]
			span := m.hiCents - m.lowCents
			amount := m.lowCents
			if span > 0 {
				amount += rng.Int63n(span)
			}
			mid := database.MerchantID(m.name)
			cat := m.category
			if err := insert(ledger.Transaction{
				ID: uuid.NewString(), Type: ledger.TypeExpense, AccountID: card.ID,
				Date: start.AddDate(0, 0, 1+rng.Intn(26)), Description: m.name,
				Merchant: m.name, MerchantID: &mid, AmountCents: amount,
				Category: &cat, CategorySource: &src, AffectsBudget: true,
			}); err != nil {
				return err
			}
		}

		if err := insert(ledger.Transaction{
			ID: uuid.NewString(), Type: ledger.TypeTransfer, AccountID: chequing.ID,
			ToAccountID: &card.ID, Date: start.AddDate(0, 0, 27),
			Description: "VISA PAYMENT", AmountCents: 900_00,
		}); err != nil {
			return err
		}
	}

	// One refund pair in the current month, tagged for the linker demo.
	purchaseID := uuid.NewString()
	refundID := uuid.NewString()
	shopCat := "Shopping"
	reimb := ledger.IncomeReimbursement
	amazonID := database.MerchantID("AMAZON.CA")
	if err := insert(ledger.Transaction{
		ID: purchaseID, Type: ledger.TypeExpense, AccountID: card.ID,
		Date: monthStart(0).AddDate(0, 0, 3), Description: "AMAZON.CA RETURN ME",
		Merchant: "AMAZON.CA", MerchantID: &amazonID, AmountCents: 64_99,
		Category: &shopCat, CategorySource: &src, AffectsBudget: true,
	}); err != nil {
		return err
	}
	if err := insert(ledger.Transaction{
		ID: refundID, Type: ledger.TypeInflow, AccountID: card.ID,
		Date: monthStart(0).AddDate(0, 0, 9), Description: "AMAZON.CA REFUND",
		AmountCents: 64_99, Category: &shopCat, CategorySource: &src,
		IncomeClass: &reimb, AffectsBudget: true,
	}); err != nil {
		return err
	}
	if err := repos.Transactions.SetLink(ctx, refundID, &purchaseID); err != nil {
		return err
	}

	tag := ledger.Tag{ID: uuid.NewString(), Name: "returns"}
	if err := repos.Tags.Upsert(ctx, tag); err != nil {
		return err
	}
	if err := repos.Tags.Attach(ctx, purchaseID, tag.ID); err != nil {
		return err
	}

	budget := ledger.Budget{
		ID: uuid.NewString(), Type: ledger.BudgetCategory, TargetID: "Food",
		MonthlyLimitCents: 500_00, AlertThresholdPercent: 80,
	}
	if err := repos.Budgets.Upsert(ctx, budget); err != nil {
		return fmt.Errorf("seed budget: %w", err)
	}
	return nil
}
