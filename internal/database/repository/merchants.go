package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/davenisc/tally/internal/ledger"
)

// MerchantRepo handles merchants.
type MerchantRepo struct {
	db *sql.DB
}

func NewMerchantRepo(db *sql.DB) *MerchantRepo {
	return &MerchantRepo{db: db}
}

func (r *MerchantRepo) Upsert(ctx context.Context, m ledger.Merchant) error {
	aliases, err := json.Marshal(m.Aliases)
	if err != nil {
		return fmt.Errorf("encode aliases: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO merchants(id, name, aliases, category, notes)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 aliases=excluded.aliases,
	 category=excluded.category,
	 notes=excluded.notes;
	`, m.ID, m.Name, string(aliases), m.Category, m.Notes)
	return err
}

func (r *MerchantRepo) Get(ctx context.Context, id string) (*ledger.Merchant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, aliases, category, notes FROM merchants WHERE id = ?`, id)
	m, err := scanMerchant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MerchantRepo) ByName(ctx context.Context, name string) (*ledger.Merchant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, aliases, category, notes FROM merchants WHERE name = ?`, name)
	m, err := scanMerchant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MerchantRepo) List(ctx context.Context) ([]ledger.Merchant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, aliases, category, notes FROM merchants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMerchant(row scanner) (ledger.Merchant, error) {
	var m ledger.Merchant
	var aliases string
	if err := row.Scan(&m.ID, &m.Name, &aliases, &m.Category, &m.Notes); err != nil {
		return ledger.Merchant{}, err
	}
	if err := json.Unmarshal([]byte(aliases), &m.Aliases); err != nil {
		return ledger.Merchant{}, fmt.Errorf("decode aliases for %s: %w", m.ID, err)
	}
	return m, nil
}
