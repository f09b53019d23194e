package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/davenisc/tally/internal/ledger"
	"github.com/davenisc/tally/internal/taxonomy"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	AccountID       string
	Type            ledger.TransactionType
	Category        string // matches the exact path, or the whole parent when IncludeChildren is set
	IncludeChildren bool
	Month           time.Time // use first day of month; zero time = no month filter
	Search          string
	Uncategorized   bool
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Insert(ctx context.Context, t ledger.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, type, account_id, to_account_id, date, description, merchant, merchant_id, amount,
	 category, category_source, income_class, affects_budget, linked_transaction_id,
	 imported_at, source_file, source_hash, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, string(t.Type), t.AccountID, t.ToAccountID, t.Date, t.Description, t.Merchant,
		t.MerchantID, t.AmountCents, t.Category, sourceArg(t.CategorySource), classArg(t.IncomeClass),
		t.AffectsBudget, t.LinkedTransactionID, t.ImportedAt, t.SourceFile, t.SourceHash)
	return err
}

// Update rewrites every mutable field. Identity, import provenance, and
// created_at stay fixed.
func (r *TransactionRepo) Update(ctx context.Context, t ledger.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET
	 type=?, account_id=?, to_account_id=?, date=?, description=?, merchant=?, merchant_id=?,
	 amount=?, category=?, category_source=?, income_class=?, affects_budget=?,
	 linked_transaction_id=?, updated_at=CURRENT_TIMESTAMP
	WHERE id = ?;
	`, string(t.Type), t.AccountID, t.ToAccountID, t.Date, t.Description, t.Merchant, t.MerchantID,
		t.AmountCents, t.Category, sourceArg(t.CategorySource), classArg(t.IncomeClass),
		t.AffectsBudget, t.LinkedTransactionID, t.ID)
	return err
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id string, category *string, source *ledger.CategorySource) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET category = ?, category_source = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`,
		category, sourceArg(source), id)
	return err
}

func (r *TransactionRepo) SetLink(ctx context.Context, id string, linkedID *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET linked_transaction_id = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`,
		linkedID, id)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*ledger.Transaction, error) {
	row := r.db.QueryRowContext(ctx, transactionSelect+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ExistsBySourceHash reports whether an import with this hash already
// landed. Used for re-import dedup.
func (r *TransactionRepo) ExistsBySourceHash(ctx context.Context, hash string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE source_hash = ?`, hash).Scan(&n)
	return n > 0, err
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]ledger.Transaction, error) {
	var where []string
	var args []interface{}

	if f.AccountID != "" {
		where = append(where, "(account_id = ? OR to_account_id = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		if f.IncludeChildren {
			where = append(where, "(category = ? OR category LIKE ?)")
			args = append(args, f.Category, f.Category+taxonomy.Separator+"%")
		} else {
			where = append(where, "category = ?")
			args = append(args, f.Category)
		}
	}
	if !f.Month.IsZero() {
		start := time.Date(f.Month.Year(), f.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, start, end)
	}
	if f.Search != "" {
		where = append(where, "(description LIKE ? OR merchant LIKE ?)")
		args = append(args, "%"+f.Search+"%", "%"+f.Search+"%")
	}
	if f.Uncategorized {
		where = append(where, "(category IS NULL OR category = ?) AND type IN ('EXPENSE', 'INFLOW')")
		args = append(args, ledger.Uncategorized)
	}

	query := transactionSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListForRange returns all transactions dated in [start, end).
func (r *TransactionRepo) ListForRange(ctx context.Context, start, end time.Time) ([]ledger.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		transactionSelect+` WHERE date >= ? AND date < ? ORDER BY date DESC, created_at DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountForMonth returns totals for the dashboard header.
func (r *TransactionRepo) CountForMonth(ctx context.Context, month time.Time) (total int, uncategorized int, err error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE date >= ? AND date < ?`, start, end)
	if err = row.Scan(&total); err != nil {
		return
	}
	row = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE date >= ? AND date < ?
		 AND (category IS NULL OR category = ?) AND type IN ('EXPENSE', 'INFLOW')`,
		start, end, ledger.Uncategorized)
	if err = row.Scan(&uncategorized); err != nil {
		return
	}
	return
}

const transactionSelect = `SELECT id, type, account_id, to_account_id, date, description, merchant, merchant_id,
 amount, category, category_source, income_class, affects_budget, linked_transaction_id,
 imported_at, source_file, source_hash, created_at, updated_at FROM transactions`

// scanTransaction handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	var typ string
	var toAccount, merchantID, category, source, class, linked, sourceFile, sourceHash sql.NullString
	var importedAt sql.NullTime
	if err := row.Scan(&t.ID, &typ, &t.AccountID, &toAccount, &t.Date, &t.Description, &t.Merchant,
		&merchantID, &t.AmountCents, &category, &source, &class, &t.AffectsBudget, &linked,
		&importedAt, &sourceFile, &sourceHash, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return ledger.Transaction{}, err
	}
	t.Type = ledger.TransactionType(typ)
	if toAccount.Valid {
		t.ToAccountID = &toAccount.String
	}
	if merchantID.Valid {
		t.MerchantID = &merchantID.String
	}
	if category.Valid {
		t.Category = &category.String
	}
	if source.Valid {
		cs := ledger.CategorySource(source.String)
		t.CategorySource = &cs
	}
	if class.Valid {
		ic := ledger.IncomeClass(class.String)
		t.IncomeClass = &ic
	}
	if linked.Valid {
		t.LinkedTransactionID = &linked.String
	}
	if importedAt.Valid {
		t.ImportedAt = &importedAt.Time
	}
	if sourceFile.Valid {
		t.SourceFile = &sourceFile.String
	}
	if sourceHash.Valid {
		t.SourceHash = &sourceHash.String
	}
	return t, nil
}

func sourceArg(s *ledger.CategorySource) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}

func classArg(c *ledger.IncomeClass) interface{} {
	if c == nil {
		return nil
	}
	return string(*c)
}
