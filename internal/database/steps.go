package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// steps is the ordered upgrade path. Every store passes through each
// generation exactly once; a legacy column is only dropped one
// generation after the one that superseded it.
var steps = []Step{
	{Version: 1, Name: "baseline ledger", Apply: stepBaseline},
	{Version: 2, Name: "transaction type system", Apply: stepTypeSystem},
	{Version: 3, Name: "budgets and merchant rules", Apply: stepBudgetsAndRules},
	{Version: 4, Name: "merchant and tag entities", Apply: stepMerchantsAndTags},
	{Version: 5, Name: "account detail and cleanup", Apply: stepAccountDetail},
}

// v1: the original flat ledger. Transactions carry a signed amount
// (negative = money in, per bank export convention) and a free-text
// merchant.
func stepBaseline(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			institution TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			date TIMESTAMP NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			merchant TEXT NOT NULL DEFAULT '',
			amount INTEGER NOT NULL,
			category TEXT,
			source_file TEXT,
			source_hash TEXT,
			imported_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_source_hash
			ON transactions(source_hash) WHERE source_hash IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			api_key TEXT NOT NULL DEFAULT '',
			default_categories TEXT NOT NULL DEFAULT '[]',
			currency TEXT NOT NULL DEFAULT 'CAD'
		)`,
		`INSERT OR IGNORE INTO settings(id) VALUES (1)`,
	)
}

// v2: the typed transaction model. Type is inferred from the legacy
// signed amount (negative = INFLOW, else EXPENSE), the magnitude goes
// absolute, and the signed value is retained in legacy_amount for one
// transition window.
func stepTypeSystem(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		`ALTER TABLE transactions ADD COLUMN type TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE transactions ADD COLUMN to_account_id TEXT REFERENCES accounts(id) ON DELETE CASCADE`,
		`ALTER TABLE transactions ADD COLUMN income_class TEXT`,
		`ALTER TABLE transactions ADD COLUMN category_source TEXT`,
		`ALTER TABLE transactions ADD COLUMN affects_budget INTEGER NOT NULL DEFAULT 1`,
		`ALTER TABLE transactions ADD COLUMN linked_transaction_id TEXT REFERENCES transactions(id) ON DELETE SET NULL`,
		`ALTER TABLE transactions ADD COLUMN legacy_amount INTEGER`,
		`UPDATE transactions SET legacy_amount = amount`,
		`UPDATE transactions SET type = CASE WHEN amount < 0 THEN 'INFLOW' ELSE 'EXPENSE' END WHERE type = ''`,
		`UPDATE transactions SET amount = ABS(amount)`,
		`UPDATE transactions SET income_class = 'EARNED' WHERE type = 'INFLOW' AND income_class IS NULL`,
	)
}

// v3: budgets and the merchant rule cache. Rules key on the free-text
// merchant at this generation; v4 rewrites them to merchant ids.
func stepBudgetsAndRules(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS budgets (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			monthly_limit INTEGER NOT NULL,
			alert_threshold REAL NOT NULL DEFAULT 80,
			account_id TEXT REFERENCES accounts(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS merchant_rules (
			id TEXT PRIMARY KEY,
			merchant TEXT NOT NULL,
			category TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT 'manual',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_merchant_rules_merchant ON merchant_rules(merchant)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
	)
}

// v4: merchants and tags become entities. One merchant is synthesized
// per distinct historical merchant string (exact match, stable id), and
// every referencing row is rewritten before the step completes. The
// free-text transaction column stays for read compatibility.
func stepMerchantsAndTags(ctx context.Context, tx *sql.Tx) error {
	err := execAll(ctx, tx,
		`CREATE TABLE IF NOT EXISTS merchants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			aliases TEXT NOT NULL DEFAULT '[]',
			category TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS transaction_tags (
			transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (transaction_id, tag_id)
		)`,
		`ALTER TABLE transactions ADD COLUMN merchant_id TEXT REFERENCES merchants(id)`,
		`ALTER TABLE merchant_rules ADD COLUMN merchant_id TEXT REFERENCES merchants(id) ON DELETE CASCADE`,
	)
	if err != nil {
		return err
	}

	names, err := distinctMerchantNames(ctx, tx)
	if err != nil {
		return err
	}
	for _, name := range names {
		id := MerchantID(name)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO merchants(id, name) VALUES(?, ?)`, id, name); err != nil {
			return fmt.Errorf("synthesize merchant %q: %w", name, err)
		}
	}

	return execAll(ctx, tx,
		`UPDATE transactions SET merchant_id =
			(SELECT m.id FROM merchants m WHERE m.name = transactions.merchant)
			WHERE merchant != ''`,
		`UPDATE merchant_rules SET merchant_id =
			(SELECT m.id FROM merchants m WHERE m.name = merchant_rules.merchant)`,
		`DELETE FROM merchant_rules WHERE merchant_id IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_merchant_rules_merchant_id ON merchant_rules(merchant_id)`,
	)
}

// v5: account kind detail lands, and the v2 transition column goes away.
// The merchant_rules free-text key, superseded in v4, goes with it.
func stepAccountDetail(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		`ALTER TABLE accounts ADD COLUMN kind TEXT NOT NULL DEFAULT 'bank'`,
		`ALTER TABLE accounts ADD COLUMN color TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE accounts ADD COLUMN currency TEXT NOT NULL DEFAULT 'CAD'`,
		`ALTER TABLE accounts ADD COLUMN is_default INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE accounts ADD COLUMN is_active INTEGER NOT NULL DEFAULT 1`,
		`ALTER TABLE accounts ADD COLUMN subtype TEXT`,
		`ALTER TABLE accounts ADD COLUMN current_balance INTEGER`,
		`ALTER TABLE accounts ADD COLUMN available_balance INTEGER`,
		`ALTER TABLE accounts ADD COLUMN issuer TEXT`,
		`ALTER TABLE accounts ADD COLUMN credit_limit INTEGER`,
		`ALTER TABLE accounts ADD COLUMN available_credit INTEGER`,
		`ALTER TABLE accounts ADD COLUMN statement_day INTEGER`,
		`ALTER TABLE accounts ADD COLUMN due_day INTEGER`,
		`ALTER TABLE accounts ADD COLUMN apr REAL`,
		`ALTER TABLE accounts ADD COLUMN cash_advance_apr REAL`,
		`ALTER TABLE accounts ADD COLUMN payment_status TEXT`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_default ON accounts(is_default) WHERE is_default = 1`,
		`ALTER TABLE transactions DROP COLUMN legacy_amount`,
		`DROP INDEX IF EXISTS idx_merchant_rules_merchant`,
		`ALTER TABLE merchant_rules DROP COLUMN merchant`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_merchant ON transactions(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type)`,
	)
}

func distinctMerchantNames(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT merchant FROM transactions WHERE merchant != ''
		 UNION SELECT merchant FROM merchant_rules WHERE merchant != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// MerchantID derives the stable id for a merchant name. The same name
// always maps to the same id, so re-imports and migrations agree.
func MerchantID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("merchant:"+name)).String()
}
