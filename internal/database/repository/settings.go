package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/davenisc/tally/internal/ledger"
)

// SettingsRepo handles the singleton settings row. The category
// vocabulary is stored here as a JSON array of paths.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Get(ctx context.Context) (*ledger.Settings, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT api_key, default_categories, currency FROM settings WHERE id = 1`)
	var s ledger.Settings
	var cats string
	if err := row.Scan(&s.APIKey, &cats, &s.Currency); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cats), &s.DefaultCategories); err != nil {
		return nil, fmt.Errorf("decode default categories: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s ledger.Settings) error {
	cats, err := json.Marshal(s.DefaultCategories)
	if err != nil {
		return fmt.Errorf("encode default categories: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE settings SET api_key = ?, default_categories = ?, currency = ? WHERE id = 1`,
		s.APIKey, string(cats), s.Currency)
	return err
}
