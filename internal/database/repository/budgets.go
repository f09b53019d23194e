package repository

import (
	"context"
	"database/sql"

	"github.com/davenisc/tally/internal/ledger"
)

// BudgetRepo handles budgets. Uniqueness per (type, target, account) is
// advisory: FindByTarget lets callers confirm-to-replace, the schema
// does not forbid duplicates.
type BudgetRepo struct {
	db *sql.DB
}

func NewBudgetRepo(db *sql.DB) *BudgetRepo {
	return &BudgetRepo{db: db}
}

func (r *BudgetRepo) Upsert(ctx context.Context, b ledger.Budget) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO budgets(id, type, target_id, monthly_limit, alert_threshold, account_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 type=excluded.type,
	 target_id=excluded.target_id,
	 monthly_limit=excluded.monthly_limit,
	 alert_threshold=excluded.alert_threshold,
	 account_id=excluded.account_id;
	`, b.ID, string(b.Type), b.TargetID, b.MonthlyLimitCents, b.AlertThresholdPercent, b.AccountID)
	return err
}

func (r *BudgetRepo) Get(ctx context.Context, id string) (*ledger.Budget, error) {
	row := r.db.QueryRowContext(ctx, budgetSelect+` WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BudgetRepo) List(ctx context.Context) ([]ledger.Budget, error) {
	rows, err := r.db.QueryContext(ctx, budgetSelect+` ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindByTarget returns the existing budget on the same dimension, if
// any, so the caller can confirm replacement.
func (r *BudgetRepo) FindByTarget(ctx context.Context, typ ledger.BudgetType, targetID string, accountID *string) (*ledger.Budget, error) {
	query := budgetSelect + ` WHERE type = ? AND target_id = ?`
	args := []interface{}{string(typ), targetID}
	if accountID == nil {
		query += ` AND account_id IS NULL`
	} else {
		query += ` AND account_id = ?`
		args = append(args, *accountID)
	}
	row := r.db.QueryRowContext(ctx, query, args...)
	b, err := scanBudget(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BudgetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	return err
}

const budgetSelect = `SELECT id, type, target_id, monthly_limit, alert_threshold, account_id, created_at FROM budgets`

func scanBudget(row scanner) (ledger.Budget, error) {
	var b ledger.Budget
	var typ string
	var accountID sql.NullString
	if err := row.Scan(&b.ID, &typ, &b.TargetID, &b.MonthlyLimitCents, &b.AlertThresholdPercent,
		&accountID, &b.CreatedAt); err != nil {
		return ledger.Budget{}, err
	}
	b.Type = ledger.BudgetType(typ)
	if accountID.Valid {
		b.AccountID = &accountID.String
	}
	return b, nil
}
