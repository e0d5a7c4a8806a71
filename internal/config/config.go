// Package config loads iotlab settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	// DBPath is the SQLite file. Empty means the default data dir path.
	DBPath string

	// BankDir optionally replaces the embedded scenario bank.
	BankDir string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	Upload    UploadConfig
	Collector CollectorConfig
	Play      PlayConfig
}

// UploadConfig configures the best-effort session upload.
type UploadConfig struct {
	// URL of the collector endpoint. Empty disables uploads.
	URL string

	// Timeout bounds the whole upload, retries included. Default: 5s.
	Timeout time.Duration

	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// CollectorConfig configures `iotlab serve`.
type CollectorConfig struct {
	ListenAddr string
}

// PlayConfig tunes the interactive session.
type PlayConfig struct {
	MaxAttempts      int
	InactivityWindow time.Duration
	AssistBonus      time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Upload: UploadConfig{
			Timeout:     5 * time.Second,
			MaxAttempts: 3,
			InitialWait: 250 * time.Millisecond,
			MaxWait:     2 * time.Second,
		},
		Collector: CollectorConfig{
			ListenAddr: "127.0.0.1:8787",
		},
		Play: PlayConfig{
			MaxAttempts:      3,
			InactivityWindow: 20 * time.Second,
			AssistBonus:      10 * time.Second,
		},
	}
}

// FromEnv builds a Config from IOTLAB_* environment variables, falling back
// to defaults for unset or unparsable values.
func FromEnv() Config {
	cfg := DefaultConfig()

	cfg.DBPath = getEnv("IOTLAB_DB", cfg.DBPath)
	cfg.BankDir = getEnv("IOTLAB_BANK_DIR", cfg.BankDir)
	cfg.LogLevel = strings.ToLower(getEnv("IOTLAB_LOG_LEVEL", cfg.LogLevel))

	cfg.Upload.URL = getEnv("IOTLAB_UPLOAD_URL", cfg.Upload.URL)
	cfg.Upload.Timeout = getEnvAsDuration("IOTLAB_UPLOAD_TIMEOUT", cfg.Upload.Timeout)
	cfg.Upload.MaxAttempts = getEnvAsInt("IOTLAB_UPLOAD_ATTEMPTS", cfg.Upload.MaxAttempts)

	cfg.Collector.ListenAddr = getEnv("IOTLAB_LISTEN_ADDR", cfg.Collector.ListenAddr)

	cfg.Play.MaxAttempts = getEnvAsInt("IOTLAB_MAX_ATTEMPTS", cfg.Play.MaxAttempts)
	cfg.Play.InactivityWindow = getEnvAsDuration("IOTLAB_INACTIVITY_WINDOW", cfg.Play.InactivityWindow)
	cfg.Play.AssistBonus = getEnvAsDuration("IOTLAB_ASSIST_BONUS", cfg.Play.AssistBonus)

	return cfg
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Upload.URL != "" {
		u, err := url.Parse(c.Upload.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("IOTLAB_UPLOAD_URL must be an http(s) URL, got %q", c.Upload.URL)
		}
	}
	if c.Upload.Timeout <= 0 {
		return fmt.Errorf("IOTLAB_UPLOAD_TIMEOUT must be positive, got %s", c.Upload.Timeout)
	}
	if c.Upload.MaxAttempts < 1 {
		return fmt.Errorf("IOTLAB_UPLOAD_ATTEMPTS must be at least 1, got %d", c.Upload.MaxAttempts)
	}
	if _, _, err := net.SplitHostPort(c.Collector.ListenAddr); err != nil {
		return fmt.Errorf("invalid IOTLAB_LISTEN_ADDR %q: %w", c.Collector.ListenAddr, err)
	}
	if c.Play.MaxAttempts < 1 {
		return fmt.Errorf("IOTLAB_MAX_ATTEMPTS must be at least 1, got %d", c.Play.MaxAttempts)
	}
	if c.Play.InactivityWindow < time.Second {
		return fmt.Errorf("IOTLAB_INACTIVITY_WINDOW must be at least 1s, got %s", c.Play.InactivityWindow)
	}
	if c.Play.AssistBonus < 0 {
		return fmt.Errorf("IOTLAB_ASSIST_BONUS must not be negative, got %s", c.Play.AssistBonus)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("20s") or bare seconds ("20").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
