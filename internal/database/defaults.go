package database

import (
	"context"
	"database/sql"

	"github.com/davenisc/tally/internal/database/repository"
)

// SeedDefaults writes the starter category vocabulary for brand-new
// stores. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	repo := repository.NewSettingsRepo(db)
	s, err := repo.Get(ctx)
	if err != nil {
		return err
	}
	if len(s.DefaultCategories) > 0 {
		return nil
	}
	s.DefaultCategories = DefaultCategories()
	return repo.Save(ctx, *s)
}

// DefaultCategories is the starter vocabulary. Users grow it from here;
// the classifier only ever suggests paths from the active set.
func DefaultCategories() []string {
	return []string{
		"Income > Salary",
		"Income > Dividends",
		"Food > Groceries",
		"Food > Restaurants",
		"Transport",
		"Shopping",
		"Bills > Utilities",
		"Bills > Subscriptions",
		"Health",
		"Entertainment",
		"Travel",
		"Fees > Interest",
		"Fees > Service",
	}
}
