package repository

import (
	"context"
	"database/sql"

	"github.com/davenisc/tally/internal/ledger"
)

// TagRepo handles tags and the transaction-tag junction.
type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{db: db} }

func (r *TagRepo) Upsert(ctx context.Context, t ledger.Tag) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO tags(id, name, color) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name, color=excluded.color;
	`, t.ID, t.Name, t.Color)
	return err
}

func (r *TagRepo) ByName(ctx context.Context, name string) (*ledger.Tag, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, color FROM tags WHERE name = ?`, name)
	var t ledger.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Color); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) List(ctx context.Context) ([]ledger.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Tag
	for rows.Next() {
		var t ledger.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TagRepo) Attach(ctx context.Context, transactionID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transaction_tags(transaction_id, tag_id) VALUES(?, ?)`,
		transactionID, tagID)
	return err
}

func (r *TagRepo) Detach(ctx context.Context, transactionID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = ? AND tag_id = ?`,
		transactionID, tagID)
	return err
}

// TagIDsByTransaction returns the full junction as a map, the shape the
// budget engine takes for tag budgets.
func (r *TagRepo) TagIDsByTransaction(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, tag_id FROM transaction_tags ORDER BY transaction_id, tag_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]string)
	for rows.Next() {
		var txID, tagID string
		if err := rows.Scan(&txID, &tagID); err != nil {
			return nil, err
		}
		out[txID] = append(out[txID], tagID)
	}
	return out, rows.Err()
}
