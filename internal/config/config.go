// Package config provides configuration types and defaults for reclaim.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/reclaim/internal/log"
)

// Config holds all configuration options for reclaim.
type Config struct {
	// DBPath is the SQLite database file holding the registry, the
	// ledger, and unit ownership. Default: ~/.reclaim/reclaim.db
	DBPath string `mapstructure:"db_path"`

	// Admin is the administrative identity allowed to mutate the
	// registry, pause exchanges, and perform rescues.
	Admin string `mapstructure:"admin"`

	// Custodian is the custodial holding identity that receives units
	// from transfer-based exchanges.
	Custodian string `mapstructure:"custodian"`

	// DedupWindow is the duplicate-request window as a Go duration
	// string ("0" disables the guard).
	DedupWindow string `mapstructure:"dedup_window"`

	Tracing TracingConfig `mapstructure:"tracing"`
	UI      UIConfig      `mapstructure:"ui"`
}

// UIConfig holds dashboard configuration options.
type UIConfig struct {
	// RecentRows is how many ledger records the dashboard table shows.
	RecentRows int `mapstructure:"recent_rows"`

	// AutoRefresh reloads the dashboard when another process writes the
	// database file.
	AutoRefresh bool `mapstructure:"auto_refresh"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Window parses the dedup window. Invalid or empty values disable the
// guard.
func (c Config) Window() time.Duration {
	if c.DedupWindow == "" {
		return 0
	}
	d, err := time.ParseDuration(c.DedupWindow)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DefaultDBPath returns ~/.reclaim/reclaim.db, or a relative fallback
// if the home directory is unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "reclaim.db"
	}
	return filepath.Join(home, ".reclaim", "reclaim.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "reclaim", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DBPath:      DefaultDBPath(),
		Admin:       "admin:reclaim",
		Custodian:   "custody:reclaim",
		DedupWindow: "0",
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		UI: UIConfig{
			RecentRows:  15,
			AutoRefresh: true,
		},
	}
}

// Validate checks the whole configuration for errors.
func Validate(cfg Config) error {
	if cfg.Admin == "" {
		return fmt.Errorf("admin identity is required")
	}
	if cfg.Custodian == "" {
		return fmt.Errorf("custodian identity is required")
	}
	if cfg.Custodian == cfg.Admin {
		return fmt.Errorf("custodian and admin identities must differ")
	}
	if cfg.DedupWindow != "" && cfg.DedupWindow != "0" {
		if _, err := time.ParseDuration(cfg.DedupWindow); err != nil {
			return fmt.Errorf("dedup_window must be a duration like \"30s\", got %q", cfg.DedupWindow)
		}
	}
	if cfg.UI.RecentRows < 0 {
		return fmt.Errorf("ui.recent_rows must not be negative, got %d", cfg.UI.RecentRows)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Reclaim Configuration

# SQLite database holding the registry, the ledger, and unit ownership
# db_path: ~/.reclaim/reclaim.db

# Administrative identity: may register classes, change rates, pause
# exchanges, and perform emergency rescues
admin: admin:reclaim

# Custodial holding identity: receives units from transfer-based
# exchanges
custodian: custody:reclaim

# Duplicate-request window. An identical exchange request repeated
# within this window is rejected. "0" disables the guard.
dedup_window: "0"

# Dashboard settings
ui:
  recent_rows: 15     # Ledger rows shown in the dashboard table
  auto_refresh: true  # Reload when another process writes the database

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp
#   file_path: ~/.config/reclaim/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint
#   sample_rate: 1.0               # Sampling rate 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
