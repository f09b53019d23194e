// Package app builds the application state: configuration, store,
// repositories and services, wired once at startup and passed down
// explicitly.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/davenisc/tally/internal/config"
	"github.com/davenisc/tally/internal/database"
	"github.com/davenisc/tally/internal/database/repository"
	"github.com/davenisc/tally/internal/llm"
	"github.com/davenisc/tally/internal/secrets"
	"github.com/davenisc/tally/internal/service"
)

// App is the composition root. Construction order is load config, open
// store, migrate, seed defaults, wire repositories and services; a
// migration failure aborts construction with the store untouched.
type App struct {
	Config   config.Config
	DB       *sql.DB
	Log      zerolog.Logger
	Location *time.Location
	APIKey   string

	Accounts     *repository.AccountRepo
	Transactions *repository.TransactionRepo
	Merchants    *repository.MerchantRepo
	Rules        *repository.MerchantRuleRepo
	Tags         *repository.TagRepo
	Budgets      *repository.BudgetRepo
	Settings     *repository.SettingsRepo

	Importer    *service.Importer
	Categorizer *service.Categorizer
	Linker      *service.Linker
	Bulk        *service.Bulk
	Backup      *service.Backup
	Maintenance *service.Maintenance
}

func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	a := &App{
		Config: cfg,
		DB:     db,
		Log:    log,
		APIKey: resolveAPIKey(cfg),

		Accounts:     repository.NewAccountRepo(db),
		Transactions: repository.NewTransactionRepo(db),
		Merchants:    repository.NewMerchantRepo(db),
		Rules:        repository.NewMerchantRuleRepo(db),
		Tags:         repository.NewTagRepo(db),
		Budgets:      repository.NewBudgetRepo(db),
		Settings:     repository.NewSettingsRepo(db),
	}

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		log.Warn().Str("timezone", cfg.UI.Timezone).Err(err).Msg("falling back to local timezone")
		loc = time.Local
	}
	a.Location = loc

	a.Importer = &service.Importer{
		Transactions: a.Transactions, Accounts: a.Accounts, Merchants: a.Merchants, Log: log,
	}
	a.Categorizer = &service.Categorizer{
		Transactions: a.Transactions, Rules: a.Rules, Settings: a.Settings,
		Classifier: llm.NewGeminiClassifier(a.APIKey, cfg.LLM.Model), Log: log,
	}
	a.Linker = &service.Linker{Transactions: a.Transactions, Log: log}
	a.Bulk = &service.Bulk{Transactions: a.Transactions, Log: log}
	a.Backup = &service.Backup{
		Settings: a.Settings, Accounts: a.Accounts, Merchants: a.Merchants, Tags: a.Tags,
		Transactions: a.Transactions, Rules: a.Rules, Budgets: a.Budgets, Log: log,
	}
	a.Maintenance = &service.Maintenance{DB: db, Log: log}
	return a, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// resolveAPIKey prefers the environment, then the encrypted store, then
// the config file.
func resolveAPIKey(cfg config.Config) string {
	env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if k, err := secrets.FetchProviderKey(cfg.LLM.Provider); err == nil && k != "" {
		return k
	}
	return strings.TrimSpace(cfg.LLM.APIKey)
}
