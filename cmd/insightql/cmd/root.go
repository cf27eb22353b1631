// Package cmd provides the CLI commands for insightql.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/insightql/insightql/internal/config"
	"github.com/insightql/insightql/internal/logging"
	"github.com/insightql/insightql/internal/store"
	"github.com/insightql/insightql/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the insightql CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insightql",
		Short: "Document store and multi-strategy retrieval engine",
		Long: `insightql indexes text resources into a local SQLite store and serves
keyword search over them with a cascade of strategies: FTS5 full-text
search when available, an inverted index with coverage scoring, and a
prefix fallback for partial matches.

Run 'insightql index' to build the store, then 'insightql search'.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("insightql version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.insightql/logs/")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging loads .env overrides and initializes file logging.
func setupLogging(_ *cobra.Command, _ []string) error {
	// Missing .env files are fine.
	_ = godotenv.Load()

	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if debugMode {
		cfg.Level = "debug"
		cfg.WriteToStderr = true
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if debugMode {
		slog.Debug("debug_logging_enabled", slog.String("log_file", logging.DefaultLogPath()))
	}
	return nil
}

// teardownLogging flushes and closes the log file.
func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads configuration from the working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openStore opens the configured document store.
func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.OpenWithCacheSize(cfg.Store.Path, cfg.Store.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Store.Path, err)
	}
	return s, nil
}
