package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("IOTLAB_DB", "/tmp/lab.db")
	t.Setenv("IOTLAB_UPLOAD_URL", "http://localhost:8787/v1/sessions")
	t.Setenv("IOTLAB_UPLOAD_TIMEOUT", "2s")
	t.Setenv("IOTLAB_UPLOAD_ATTEMPTS", "5")
	t.Setenv("IOTLAB_MAX_ATTEMPTS", "4")
	t.Setenv("IOTLAB_INACTIVITY_WINDOW", "30")
	t.Setenv("IOTLAB_ASSIST_BONUS", "15s")
	t.Setenv("IOTLAB_LOG_LEVEL", "DEBUG")

	cfg := FromEnv()
	if cfg.DBPath != "/tmp/lab.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Upload.Timeout != 2*time.Second || cfg.Upload.MaxAttempts != 5 {
		t.Errorf("Upload = %+v", cfg.Upload)
	}
	if cfg.Play.MaxAttempts != 4 {
		t.Errorf("Play.MaxAttempts = %d, want 4", cfg.Play.MaxAttempts)
	}
	if cfg.Play.InactivityWindow != 30*time.Second {
		t.Errorf("InactivityWindow = %s, want 30s", cfg.Play.InactivityWindow)
	}
	if cfg.Play.AssistBonus != 15*time.Second {
		t.Errorf("AssistBonus = %s, want 15s", cfg.Play.AssistBonus)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("IOTLAB_UPLOAD_ATTEMPTS", "many")
	t.Setenv("IOTLAB_INACTIVITY_WINDOW", "soon")
	cfg := FromEnv()
	if cfg.Upload.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want default 3", cfg.Upload.MaxAttempts)
	}
	if cfg.Play.InactivityWindow != 20*time.Second {
		t.Errorf("InactivityWindow = %s, want default", cfg.Play.InactivityWindow)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.LogLevel = "chatty" }},
		{"ftp upload", func(c *Config) { c.Upload.URL = "ftp://example.com" }},
		{"zero attempts", func(c *Config) { c.Upload.MaxAttempts = 0 }},
		{"bad listen", func(c *Config) { c.Collector.ListenAddr = "nowhere" }},
		{"short window", func(c *Config) { c.Play.InactivityWindow = time.Millisecond }},
		{"no play attempts", func(c *Config) { c.Play.MaxAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
