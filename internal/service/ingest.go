package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/davenisc/tally/internal/database"
	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/ledger"
)

// Importer turns CSV bank/card exports into draft transactions.
type Importer struct {
	Transactions *repository.TransactionRepo
	Accounts     *repository.AccountRepo
	Merchants    *repository.MerchantRepo
	Log          zerolog.Logger

	accountCache map[string]ledger.Account
}

type ImportResult struct {
	Imported  int
	Skipped   int
	RowErrors []error
}

// ImportCSV ingests rows of the form: date, description, charge, credit
// and an optional trailing balance column. A charge makes an EXPENSE
// draft, a credit makes an INFLOW draft; rows with both or neither
// populated are row errors, never fatal. Re-imports of the same rows
// are skipped via the source hash.
func (s *Importer) ImportCSV(ctx context.Context, r io.Reader, accountName, sourceFile string) (ImportResult, error) {
	res := ImportResult{}

	acct, err := s.accountForName(ctx, accountName)
	if err != nil {
		return res, err
	}

	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	now := database.Now()
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if line == 1 && looksLikeHeader(rec) {
			continue
		}
		if len(rec) < 4 {
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d: expected at least 4 columns (date, description, charge, credit)", line))
			continue
		}

		date, err := parseDate(rec[0])
		if err != nil {
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		desc := strings.TrimSpace(rec[1])
		chargeStr := strings.TrimSpace(rec[2])
		creditStr := strings.TrimSpace(rec[3])

		var typ ledger.TransactionType
		var amountStr string
		switch {
		case chargeStr != "" && creditStr != "":
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d: both charge and credit populated", line))
			continue
		case chargeStr != "":
			typ, amountStr = ledger.TypeExpense, chargeStr
		case creditStr != "":
			typ, amountStr = ledger.TypeInflow, creditStr
		default:
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d: neither charge nor credit populated", line))
			continue
		}
		amountCents, err := dollarsToCents(amountStr)
		if err != nil {
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		if amountCents < 0 {
			amountCents = -amountCents
		}

		merchant := merchantName(desc)
		merchantID, err := s.ensureMerchant(ctx, merchant)
		if err != nil {
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d merchant: %w", line, err))
			continue
		}

		placeholder := ledger.Uncategorized
		t := ledger.Transaction{
			ID:            uuid.NewString(),
			Type:          typ,
			AccountID:     acct.ID,
			Date:          date,
			Description:   desc,
			Merchant:      merchant,
			MerchantID:    merchantID,
			AmountCents:   amountCents,
			Category:      &placeholder,
			AffectsBudget: true,
			ImportedAt:    &now,
			SourceFile:    nullableStr(sourceFile),
			SourceHash:    hashSource(acct.ID, date.Format(time.DateOnly), fmt.Sprintf("%d", amountCents), desc),
		}
		if typ == ledger.TypeInflow {
			class := ledger.IncomeEarned
			t.IncomeClass = &class
		}
		if err := ledger.Validate(t); err != nil {
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d: %w", line, err))
			continue
		}

		if err := s.Transactions.Insert(ctx, t); err != nil {
			// skip duplicates on unique constraint
			if strings.Contains(err.Error(), "UNIQUE") {
				res.Skipped++
				continue
			}
			res.RowErrors = append(res.RowErrors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		res.Imported++
	}

	s.Log.Info().
		Str("account", acct.Name).
		Str("file", sourceFile).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Int("row_errors", len(res.RowErrors)).
		Msg("csv import complete")
	return res, nil
}

// looksLikeHeader treats a first row whose date cell does not parse and
// mentions "date" as a header.
func looksLikeHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	if _, err := parseDate(rec[0]); err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(rec[0]), "date")
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func dollarsToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}

// merchantName derives the merchant identity from the raw description:
// uppercased with whitespace collapsed, so re-imports agree exactly.
func merchantName(desc string) string {
	return strings.ToUpper(strings.Join(strings.Fields(desc), " "))
}

func (s *Importer) ensureMerchant(ctx context.Context, name string) (*string, error) {
	if name == "" {
		return nil, nil
	}
	id := database.MerchantID(name)
	existing, err := s.Merchants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := s.Merchants.Upsert(ctx, ledger.Merchant{ID: id, Name: name}); err != nil {
			return nil, err
		}
	}
	return &id, nil
}

func (s *Importer) accountForName(ctx context.Context, name string) (ledger.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Account{}, errors.New("account name required")
	}
	if s.accountCache == nil {
		s.accountCache = make(map[string]ledger.Account)
	}
	if acct, ok := s.accountCache[name]; ok {
		return acct, nil
	}

	id := deterministicAccountID(name)
	existing, err := s.Accounts.Get(ctx, id)
	if err != nil {
		return ledger.Account{}, err
	}
	if existing != nil {
		s.accountCache[name] = *existing
		return *existing, nil
	}

	acct := ledger.Account{
		ID: id, Kind: ledger.KindBank, Name: name, Institution: name,
		Currency: "CAD", IsActive: true,
		Bank: &ledger.BankDetail{Subtype: ledger.SubtypeChequing},
	}
	if err := s.Accounts.Insert(ctx, acct); err != nil {
		return ledger.Account{}, err
	}
	s.Log.Info().Str("account", name).Msg("created account for import")
	s.accountCache[name] = acct
	return acct, nil
}

func deterministicAccountID(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("account:"+key)).String()
}

func nullableStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func hashSource(parts ...string) *string {
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	h := fmt.Sprintf("%x", sum[:])
	return &h
}
