package repository

import (
	"context"
	"database/sql"

	"github.com/davenisc/tally/internal/ledger"
)

// MerchantRuleRepo stores the category rule cache consulted before any
// AI call. One rule per merchant; later writes win.
type MerchantRuleRepo struct{ db *sql.DB }

func NewMerchantRuleRepo(db *sql.DB) *MerchantRuleRepo { return &MerchantRuleRepo{db: db} }

func (r *MerchantRuleRepo) Upsert(ctx context.Context, mr ledger.MerchantRule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO merchant_rules(id, merchant_id, category, source, created_at, updated_at)
	VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(merchant_id) DO UPDATE SET
	 category=excluded.category,
	 source=excluded.source,
	 updated_at=CURRENT_TIMESTAMP;
	`, mr.ID, mr.MerchantID, mr.Category, string(mr.Source))
	return err
}

func (r *MerchantRuleRepo) ForMerchant(ctx context.Context, merchantID string) (*ledger.MerchantRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, merchant_id, category, source, created_at, updated_at FROM merchant_rules WHERE merchant_id = ?`,
		merchantID)
	mr, err := scanMerchantRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &mr, nil
}

func (r *MerchantRuleRepo) List(ctx context.Context) ([]ledger.MerchantRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, merchant_id, category, source, created_at, updated_at FROM merchant_rules ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.MerchantRule
	for rows.Next() {
		mr, err := scanMerchantRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}

func (r *MerchantRuleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM merchant_rules WHERE id = ?`, id)
	return err
}

func scanMerchantRule(row scanner) (ledger.MerchantRule, error) {
	var mr ledger.MerchantRule
	var source string
	if err := row.Scan(&mr.ID, &mr.MerchantID, &mr.Category, &source, &mr.CreatedAt, &mr.UpdatedAt); err != nil {
		return ledger.MerchantRule{}, err
	}
	mr.Source = ledger.CategorySource(source)
	return mr, nil
}
