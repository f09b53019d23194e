package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davenisc/tally/internal/config"
	"github.com/davenisc/tally/internal/secrets"
	"github.com/davenisc/tally/internal/taxonomy"
)

func newSettingsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change configuration",
	}
	cmd.AddCommand(
		newSettingsShowCmd(e),
		newSettingsSetCmd(e),
		newSettingsSetKeyCmd(e),
		newSettingsClearKeyCmd(e),
		newSettingsCategoriesCmd(e),
	)
	return cmd
}

func newSettingsShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := e.app.Config
			stored, err := e.app.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}

			w := newTab(cmd.OutOrStdout())
			fmt.Fprintf(w, "database.path\t%s\n", cfg.Database.Path)
			fmt.Fprintf(w, "llm.provider\t%s\n", cfg.LLM.Provider)
			fmt.Fprintf(w, "llm.model\t%s\n", cfg.LLM.Model)
			fmt.Fprintf(w, "llm.api_key\t%s\n", keySource(cfg))
			fmt.Fprintf(w, "ui.date_format\t%s\n", cfg.UI.DateFormat)
			fmt.Fprintf(w, "ui.currency_symbol\t%s\n", cfg.UI.CurrencySymbol)
			fmt.Fprintf(w, "ui.timezone\t%s\n", cfg.UI.Timezone)
			fmt.Fprintf(w, "store.currency\t%s\n", stored.Currency)
			fmt.Fprintf(w, "store.categories\t%d paths\n", len(stored.DefaultCategories))
			return w.Flush()
		},
	}
}

// keySource reports where the api key would come from without printing it.
func keySource(cfg config.Config) string {
	env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	if os.Getenv(env) != "" {
		return "set (env " + env + ")"
	}
	if _, err := secrets.FetchProviderKey(cfg.LLM.Provider); err == nil {
		return "set (encrypted store)"
	}
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		return "set (config file, consider `tally settings set-key`)"
	}
	return "not set"
}

func newSettingsSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one config value and write the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := e.app.Config
			key, value := args[0], args[1]
			switch key {
			case "database.path":
				cfg.Database.Path = value
			case "llm.provider":
				cfg.LLM.Provider = value
			case "llm.api_key_env":
				cfg.LLM.APIKeyEnv = value
			case "llm.model":
				cfg.LLM.Model = value
			case "ui.date_format":
				cfg.UI.DateFormat = value
			case "ui.currency_symbol":
				cfg.UI.CurrencySymbol = value
			case "ui.timezone":
				cfg.UI.Timezone = value
			default:
				return fmt.Errorf("unknown key %q", key)
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			e.app.Config = cfg
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}
}

func newSettingsSetKeyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [api-key]",
		Short: "Store the LLM api key in the encrypted per-user store",
		Long:  "With no argument the key is read from stdin, keeping it out of\nshell history.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Fprint(cmd.OutOrStdout(), "api key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				key = strings.TrimSpace(line)
			}
			if key == "" {
				return fmt.Errorf("empty api key")
			}
			if err := secrets.StoreProviderKey(e.app.Config.LLM.Provider, key); err != nil {
				return err
			}
			e.app.APIKey = key
			fmt.Fprintf(cmd.OutOrStdout(), "stored key for %s\n", e.app.Config.LLM.Provider)
			return nil
		},
	}
}

func newSettingsClearKeyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored LLM api key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := secrets.DeleteProviderKey(e.app.Config.LLM.Provider); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
}

func newSettingsCategoriesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category vocabulary used for classification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stored, err := e.app.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			paths := append([]string(nil), stored.DefaultCategories...)
			sort.Strings(paths)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <path>",
		Short: "Add a category path (\"Parent\" or \"Parent > Sub\")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			if !taxonomy.IsValid(path) {
				return fmt.Errorf("invalid category path %q", path)
			}
			stored, err := e.app.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range stored.DefaultCategories {
				if p == path {
					fmt.Fprintln(cmd.OutOrStdout(), "already present")
					return nil
				}
			}
			stored.DefaultCategories = append(stored.DefaultCategories, path)
			if err := e.app.Settings.Save(cmd.Context(), *stored); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a category path from the vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := e.app.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			kept := stored.DefaultCategories[:0]
			removed := false
			for _, p := range stored.DefaultCategories {
				if p == args[0] {
					removed = true
					continue
				}
				kept = append(kept, p)
			}
			if !removed {
				return fmt.Errorf("no category %q", args[0])
			}
			stored.DefaultCategories = kept
			if err := e.app.Settings.Save(cmd.Context(), *stored); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	})
	return cmd
}
