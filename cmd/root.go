// Package cmd contains all CLI commands for notion-digest
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jjenkins/notion-digest/internal/config"
	"github.com/jjenkins/notion-digest/internal/output"
	"github.com/jjenkins/notion-digest/internal/service"
	"github.com/jjenkins/notion-digest/internal/store"
)

var (
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
	version = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notion-digest",
	Short: "Aggregate Notion databases into summarizer input",
	Long: `notion-digest collects pages from several Notion databases, optionally
filtered to a single day or a date range, and flattens them into one text
payload ready for a downstream summarizer.

Sources, selected properties and date anchors are read from config.json
(see SETTINGS_PATH). Process settings come from the environment, .env.local
and .env.

Example usage:
  notion-digest serve                               # HTTP API and status page
  notion-digest aggregate --date 2025-01-15         # one day, to stdout
  notion-digest aggregate --start 2025-01-06 --end 2025-01-12 --out week.json
  notion-digest settings validate                   # check config.json
  notion-digest sources                             # list configured databases`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig loads .env files and the process configuration
func initConfig() error {
	config.LoadDotenv()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = config.NewLogger(os.Stderr, cfg, verbose)
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"settings_path", cfg.SettingsPath,
		"notion_api_url", cfg.NotionAPIURL,
		"notion_rate_limit", cfg.NotionRateLimit,
		"history_enabled", cfg.DatabaseURL != "",
	)

	return nil
}

// newClientFactory returns a factory whose clients share one rate limiter
func newClientFactory() service.ClientFactory {
	limiter := rate.NewLimiter(rate.Limit(cfg.NotionRateLimit), 1)
	return func(token string) service.NotionAPI {
		return service.NewNotionClient(token,
			service.WithBaseURL(cfg.NotionAPIURL),
			service.WithLimiter(limiter),
		)
	}
}

// openRunStore connects to the history database. It returns a nil store
// when DATABASE_URL is unset.
func openRunStore(ctx context.Context) (*store.RunStore, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, nil
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return store.NewRunStore(db), func() { db.Close() }, nil
}

func newPrinter(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.UseColors())
}
