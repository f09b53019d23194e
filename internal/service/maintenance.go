package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/davenisc/tally/internal/database"
)

// Maintenance houses destructive store operations.
type Maintenance struct {
	DB  *sql.DB
	Log zerolog.Logger
}

// Reset wipes all user data in one transaction, children before
// parents, and restores the settings defaults. Schema and version stay
// intact so the app keeps running against the same store.
func (s *Maintenance) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"transaction_tags",
			"merchant_rules",
			"budgets",
			"transactions",
			"tags",
			"merchants",
			"accounts",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE settings SET api_key = '', default_categories = '[]', currency = 'CAD' WHERE id = 1`); err != nil {
			return fmt.Errorf("reset settings: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}
	// VACUUM cannot run inside the transaction.
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	s.Log.Info().Msg("store reset")
	return nil
}
