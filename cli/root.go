// Package cli implements the dominion commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nstehr/dominion/dominion-core/config"
	"github.com/nstehr/dominion/dominion-core/persistence"
)

var (
	dbPath     string
	configPath string
	logLevel   string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "dominion",
	Short: "Archetype-driven bots for a 4X strategy game",
	Long: `Dominion runs bot empires that decide by personality, fight through a
deterministic combat resolver and remember how they were treated.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Archive path (default: $DOMINION_DB or ~/.dominion/dominion.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Balance config TOML (default: $DOMINION_CONFIG or built-in)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return nil
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("DOMINION_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dominion", "dominion.db")
}

func openArchive() (*persistence.Archive, error) {
	path := getDBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return persistence.Open(path)
}

// loadConfig returns the built-in balance unless a config file is named.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("DOMINION_CONFIG")
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
