package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/davenisc/tally/internal/app"
)

func newTab(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// money renders cents with the configured currency symbol; sign comes
// before the symbol.
func money(a *app.App, cents int64) string {
	symbol := a.Config.UI.CurrencySymbol
	if cents < 0 {
		return fmt.Sprintf("-%s%.2f", symbol, float64(-cents)/100)
	}
	return fmt.Sprintf("%s%.2f", symbol, float64(cents)/100)
}

func renderDate(a *app.App, t time.Time) string {
	return t.Format(a.Config.UI.DateFormat)
}

// parseAmount converts a decimal dollar string ("12.34", "$1,200") to
// cents.
func parseAmount(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return int64(math.Round(f * 100)), nil
}

// monthArg resolves an optional "2006-01" flag to the month's first day
// (UTC, matching stored transaction dates) and its key, defaulting to
// the current month in the configured timezone.
func monthArg(a *app.App, s string) (time.Time, string, error) {
	if strings.TrimSpace(s) == "" {
		now := time.Now().In(a.Location)
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now.Format("2006-01"), nil
	}
	parsed, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse month %q (want YYYY-MM): %w", s, err)
	}
	return parsed, parsed.Format("2006-01"), nil
}

// merchantKey normalizes a payee name the way the importer does, so
// lookups match stored merchants.
func merchantKey(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
