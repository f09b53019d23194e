package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davenisc/tally/internal/ledger"
)

// AccountRepo handles accounts. Exactly one account may be the default
// at a time; a partial unique index backs that up, so every default
// change clears the old flag and sets the new one in one transaction.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Insert(ctx context.Context, a ledger.Account) error {
	cols, err := detailColumns(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, institution, kind, color, currency, is_default, is_active,
	 subtype, current_balance, available_balance,
	 issuer, credit_limit, available_credit, statement_day, due_day, apr, cash_advance_apr, payment_status,
	 created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, a.ID, a.Name, a.Institution, string(a.Kind), a.Color, a.Currency, a.IsDefault, a.IsActive,
		cols.subtype, cols.currentBalance, cols.availableBalance,
		cols.issuer, cols.creditLimit, cols.availableCredit, cols.statementDay, cols.dueDay,
		cols.apr, cols.cashAdvanceAPR, cols.paymentStatus)
	return err
}

func (r *AccountRepo) Update(ctx context.Context, a ledger.Account) error {
	cols, err := detailColumns(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
	UPDATE accounts SET
	 name=?, institution=?, kind=?, color=?, currency=?, is_active=?,
	 subtype=?, current_balance=?, available_balance=?,
	 issuer=?, credit_limit=?, available_credit=?, statement_day=?, due_day=?, apr=?, cash_advance_apr=?, payment_status=?
	WHERE id = ?;
	`, a.Name, a.Institution, string(a.Kind), a.Color, a.Currency, a.IsActive,
		cols.subtype, cols.currentBalance, cols.availableBalance,
		cols.issuer, cols.creditLimit, cols.availableCredit, cols.statementDay, cols.dueDay,
		cols.apr, cols.cashAdvanceAPR, cols.paymentStatus, a.ID)
	return err
}

func (r *AccountRepo) Get(ctx context.Context, id string) (*ledger.Account, error) {
	row := r.db.QueryRowContext(ctx, accountSelect+` WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// List returns accounts ordered by name. Inactive accounts are included
// only when asked for.
func (r *AccountRepo) List(ctx context.Context, includeInactive bool) ([]ledger.Account, error) {
	query := accountSelect
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetDefault makes id the single default account.
func (r *AccountRepo) SetDefault(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET is_default = 0 WHERE is_default = 1`); err != nil {
		_ = tx.Rollback()
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE accounts SET is_default = 1 WHERE id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("account %s not found", id)
	}
	return tx.Commit()
}

// Delete removes the account and, via cascade, every transaction that
// references it on either side. When the deleted account was the
// default, promoteID (if non-empty) becomes the new default; otherwise
// no account is default afterward.
func (r *AccountRepo) Delete(ctx context.Context, id, promoteID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var wasDefault bool
	if err := tx.QueryRowContext(ctx, `SELECT is_default FROM accounts WHERE id = ?`, id).Scan(&wasDefault); err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return fmt.Errorf("account %s not found", id)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	if wasDefault && promoteID != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET is_default = 1 WHERE id = ?`, promoteID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const accountSelect = `SELECT id, name, institution, kind, color, currency, is_default, is_active,
 subtype, current_balance, available_balance,
 issuer, credit_limit, available_credit, statement_day, due_day, apr, cash_advance_apr, payment_status,
 created_at FROM accounts`

type accountDetailCols struct {
	subtype          *string
	currentBalance   *int64
	availableBalance *int64
	issuer           *string
	creditLimit      *int64
	availableCredit  *int64
	statementDay     *int
	dueDay           *int
	apr              *float64
	cashAdvanceAPR   *float64
	paymentStatus    *string
}

func detailColumns(a ledger.Account) (accountDetailCols, error) {
	var c accountDetailCols
	switch a.Kind {
	case ledger.KindBank:
		if a.Bank == nil {
			return c, fmt.Errorf("bank account %s missing bank detail", a.ID)
		}
		sub := string(a.Bank.Subtype)
		c.subtype = &sub
		c.currentBalance = &a.Bank.CurrentBalanceCents
		c.availableBalance = &a.Bank.AvailableBalanceCents
	case ledger.KindCreditCard:
		if a.CreditCard == nil {
			return c, fmt.Errorf("credit card account %s missing card detail", a.ID)
		}
		cc := a.CreditCard
		status := string(cc.PaymentStatus)
		c.issuer = &cc.Issuer
		c.creditLimit = &cc.CreditLimitCents
		c.currentBalance = &cc.CurrentBalanceCents
		c.availableCredit = &cc.AvailableCreditCents
		c.statementDay = &cc.StatementDay
		c.dueDay = &cc.DueDay
		c.apr = &cc.APRPercent
		c.cashAdvanceAPR = &cc.CashAdvanceAPRPercent
		c.paymentStatus = &status
	default:
		return c, fmt.Errorf("unknown account kind %q", a.Kind)
	}
	return c, nil
}

func scanAccount(row scanner) (ledger.Account, error) {
	var a ledger.Account
	var kind string
	var subtype, issuer, paymentStatus sql.NullString
	var currentBalance, availableBalance, creditLimit, availableCredit sql.NullInt64
	var statementDay, dueDay sql.NullInt64
	var apr, cashAdvanceAPR sql.NullFloat64
	if err := row.Scan(&a.ID, &a.Name, &a.Institution, &kind, &a.Color, &a.Currency,
		&a.IsDefault, &a.IsActive,
		&subtype, &currentBalance, &availableBalance,
		&issuer, &creditLimit, &availableCredit, &statementDay, &dueDay, &apr, &cashAdvanceAPR, &paymentStatus,
		&a.CreatedAt); err != nil {
		return ledger.Account{}, err
	}
	a.Kind = ledger.AccountKind(kind)
	switch a.Kind {
	case ledger.KindBank:
		a.Bank = &ledger.BankDetail{
			Subtype:               ledger.BankSubtype(subtype.String),
			CurrentBalanceCents:   currentBalance.Int64,
			AvailableBalanceCents: availableBalance.Int64,
		}
	case ledger.KindCreditCard:
		a.CreditCard = &ledger.CreditCardDetail{
			Issuer:                issuer.String,
			CreditLimitCents:      creditLimit.Int64,
			CurrentBalanceCents:   currentBalance.Int64,
			AvailableCreditCents:  availableCredit.Int64,
			StatementDay:          int(statementDay.Int64),
			DueDay:                int(dueDay.Int64),
			APRPercent:            apr.Float64,
			CashAdvanceAPRPercent: cashAdvanceAPR.Float64,
			PaymentStatus:         ledger.PaymentStatus(paymentStatus.String),
		}
	default:
		return ledger.Account{}, fmt.Errorf("unknown account kind %q in store", kind)
	}
	return a, nil
}
