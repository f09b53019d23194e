package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/davenisc/tally/internal/database"
	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

// Backup exports and restores the whole store as one JSON document.
type Backup struct {
	Settings     *repository.SettingsRepo
	Accounts     *repository.AccountRepo
	Merchants    *repository.MerchantRepo
	Tags         *repository.TagRepo
	Transactions *repository.TransactionRepo
	Rules        *repository.MerchantRuleRepo
	Budgets      *repository.BudgetRepo
	Log          zerolog.Logger
}

// Document is the backup wire format. Version tracks the schema
// generation the data was exported at.
type Document struct {
	Version         int                   `json:"version"`
	ExportedAt      string                `json:"exportedAt"`
	Settings        ledger.Settings       `json:"settings"`
	Accounts        []ledger.Account      `json:"accounts"`
	Merchants       []ledger.Merchant     `json:"merchants"`
	Tags            []ledger.Tag          `json:"tags"`
	Transactions    []ledger.Transaction  `json:"transactions"`
	TransactionTags []TagLink             `json:"transactionTags"`
	MerchantRules   []ledger.MerchantRule `json:"merchantRules"`
	Budgets         []ledger.Budget       `json:"budgets"`
}

type TagLink struct {
	TransactionID string `json:"transactionId"`
	TagID         string `json:"tagId"`
}

type RestoreResult struct {
	Imported int
	Skipped  int
}

// Export snapshots every table into one document.
func (s *Backup) Export(ctx context.Context) (*Document, error) {
	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	accounts, err := s.Accounts.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("export accounts: %w", err)
	}
	merchants, err := s.Merchants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export merchants: %w", err)
	}
	tags, err := s.Tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export tags: %w", err)
	}
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	links, err := s.tagLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("export transaction tags: %w", err)
	}
	rules, err := s.Rules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export merchant rules: %w", err)
	}
	budgets, err := s.Budgets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export budgets: %w", err)
	}

	return &Document{
		Version:         database.CurrentSchemaVersion(),
		ExportedAt:      database.Now().Format(time.RFC3339),
		Settings:        *settings,
		Accounts:        accounts,
		Merchants:       merchants,
		Tags:            tags,
		Transactions:    txs,
		TransactionTags: links,
		MerchantRules:   rules,
		Budgets:         budgets,
	}, nil
}

// ExportFile writes the document atomically: full tmp write, then
// rename.
func (s *Backup) ExportFile(ctx context.Context, path string) error {
	doc, err := s.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	s.Log.Info().Str("path", path).Int("transactions", len(doc.Transactions)).Msg("export written")
	return nil
}

// Restore applies a document in dependency order: settings, accounts,
// merchants and tags, transactions with their tag links, then rules and
// budgets. Rows already present are skipped, so restoring into a fresh
// (reset) store is the intended path. Documents from a newer schema
// generation are refused.
func (s *Backup) Restore(ctx context.Context, doc *Document) (RestoreResult, error) {
	res := RestoreResult{}
	if doc.Version > database.CurrentSchemaVersion() {
		return res, fmt.Errorf("backup version %d is newer than schema version %d: %w",
			doc.Version, database.CurrentSchemaVersion(), database.ErrFutureSchema)
	}

	if err := s.Settings.Save(ctx, doc.Settings); err != nil {
		return res, fmt.Errorf("restore settings: %w", err)
	}
	for _, a := range doc.Accounts {
		if err := s.Accounts.Insert(ctx, a); err != nil {
			if isUniqueViolation(err) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("restore account %s: %w", a.ID, err)
		}
		res.Imported++
	}
	for _, m := range doc.Merchants {
		if err := s.Merchants.Upsert(ctx, m); err != nil {
			return res, fmt.Errorf("restore merchant %s: %w", m.ID, err)
		}
		res.Imported++
	}
	for _, t := range doc.Tags {
		if err := s.Tags.Upsert(ctx, t); err != nil {
			return res, fmt.Errorf("restore tag %s: %w", t.ID, err)
		}
		res.Imported++
	}

	// Insert transactions with links stripped, then restore links in a
	// second pass: a link may point at a row that comes later in the
	// slice.
	var linked []ledger.Transaction
	for _, tx := range doc.Transactions {
		if tx.SourceHash != nil {
			exists, err := s.Transactions.ExistsBySourceHash(ctx, *tx.SourceHash)
			if err != nil {
				return res, fmt.Errorf("restore transaction %s: %w", tx.ID, err)
			}
			if exists {
				res.Skipped++
				continue
			}
		}
		insert := tx
		insert.LinkedTransactionID = nil
		if err := s.Transactions.Insert(ctx, insert); err != nil {
			if isUniqueViolation(err) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("restore transaction %s: %w", tx.ID, err)
		}
		res.Imported++
		if tx.LinkedTransactionID != nil {
			linked = append(linked, tx)
		}
	}
	for _, tx := range linked {
		if err := s.Transactions.SetLink(ctx, tx.ID, tx.LinkedTransactionID); err != nil {
			return res, fmt.Errorf("restore link on %s: %w", tx.ID, err)
		}
	}
	for _, link := range doc.TransactionTags {
		if err := s.Tags.Attach(ctx, link.TransactionID, link.TagID); err != nil {
			return res, fmt.Errorf("restore tag link %s/%s: %w", link.TransactionID, link.TagID, err)
		}
	}

	for _, rule := range doc.MerchantRules {
		if err := s.Rules.Upsert(ctx, rule); err != nil {
			return res, fmt.Errorf("restore rule %s: %w", rule.ID, err)
		}
		res.Imported++
	}
	for _, b := range doc.Budgets {
		if err := s.Budgets.Upsert(ctx, b); err != nil {
			return res, fmt.Errorf("restore budget %s: %w", b.ID, err)
		}
		res.Imported++
	}

	s.Log.Info().Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("restore complete")
	return res, nil
}

// RestoreFile reads and applies a backup document from disk.
func (s *Backup) RestoreFile(ctx context.Context, path string) (RestoreResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RestoreResult{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return RestoreResult{}, fmt.Errorf("decode backup: %w", err)
	}
	return s.Restore(ctx, &doc)
}

func (s *Backup) tagLinks(ctx context.Context) ([]TagLink, error) {
	byTx, err := s.Tags.TagIDsByTransaction(ctx)
	if err != nil {
		return nil, err
	}
	var out []TagLink
	for txID, tagIDs := range byTx {
		for _, tagID := range tagIDs {
			out = append(out, TagLink{TransactionID: txID, TagID: tagID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionID != out[j].TransactionID {
			return out[i].TransactionID < out[j].TransactionID
		}
		return out[i].TagID < out[j].TagID
	})
	return out, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}
