package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/iotlab/internal/config"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/store"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "iotlab",
	Short: "IoT lab scenario trainer",
	Long: `iotlab is a terminal training lab for IoT troubleshooting.

Wire sensors and controllers to a brief in circuit mode, or order an
emergency response plan in crisis mode. Every attempt is graded, timed and
recorded for the end-of-session report.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, scenario.KindCircuit, "", 0)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides IOTLAB_DB env var)")
	rootCmd.PersistentFlags().String("bank", "", "Directory of scenario YAML files (overrides IOTLAB_BANK_DIR)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides IOTLAB_LOG_LEVEL)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration from the environment, applies flag overrides
// and installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.FromEnv()
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("bank"); v != "" {
		cfg.BankDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// resolveDBPath returns the database path using --db / IOTLAB_DB first,
// then the default XDG path.
func resolveDBPath() (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "path", dbPath)
	return st, nil
}

func loadBank() (*scenario.Bank, error) {
	bank, err := scenario.BankDir(cfg.BankDir)
	if err != nil {
		return nil, fmt.Errorf("load scenario bank: %w", err)
	}
	return bank, nil
}

// fileLogger writes logs to a file beside the database while the
// full-screen UI owns the terminal.
func fileLogger(dbPath string) (*slog.Logger, io.Closer, error) {
	level, _ := config.ParseLevel(cfg.LogLevel)
	path := filepath.Join(filepath.Dir(dbPath), "iotlab.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}
