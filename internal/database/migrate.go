package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrFutureSchema means the store was written by a newer build. Never
// downgrade, never touch.
var ErrFutureSchema = errors.New("store schema is newer than this build")

// A Step upgrades the store by one schema generation. Apply runs inside
// the runner's transaction and must leave the store at Version's shape.
type Step struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, tx *sql.Tx) error
}

// Migrate brings the store up to the current schema generation. It runs
// at store open, before anything else reads or writes. All pending steps
// apply in one transaction: on any failure the store stays at its prior
// version and the error is fatal to startup. Re-running on an up-to-date
// store is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	return migrateTo(ctx, db, steps)
}

// SchemaVersion reads the store's current generation.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// CurrentSchemaVersion is the generation this build writes.
func CurrentSchemaVersion() int {
	return steps[len(steps)-1].Version
}

func migrateTo(ctx context.Context, db *sql.DB, list []Step) error {
	for i := 1; i < len(list); i++ {
		if list[i].Version <= list[i-1].Version {
			return fmt.Errorf("migration steps out of order at v%d", list[i].Version)
		}
	}

	stored, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	target := list[len(list)-1].Version
	if stored == target {
		return nil
	}
	if stored > target {
		return fmt.Errorf("%w: store at v%d, build understands v%d", ErrFutureSchema, stored, target)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, s := range list {
		if s.Version <= stored {
			continue
		}
		if err := s.Apply(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate to v%d (%s): %w", s.Version, s.Name, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("bump schema version: %w", err)
	}
	return tx.Commit()
}

func execAll(ctx context.Context, tx *sql.Tx, stmts ...string) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("%w (statement: %.60s)", err, s)
		}
	}
	return nil
}
