package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NotEmpty(t, cfg.DBPath)
	require.Equal(t, "admin:reclaim", cfg.Admin)
	require.Equal(t, "custody:reclaim", cfg.Custodian)
	require.Equal(t, "0", cfg.DedupWindow)
	require.Equal(t, 15, cfg.UI.RecentRows)
	require.True(t, cfg.UI.AutoRefresh)
	require.False(t, cfg.Tracing.Enabled)
	require.NoError(t, Validate(cfg), "defaults must validate")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing admin", func(c *Config) { c.Admin = "" }, "admin identity is required"},
		{"missing custodian", func(c *Config) { c.Custodian = "" }, "custodian identity is required"},
		{"custodian equals admin", func(c *Config) { c.Custodian = c.Admin }, "must differ"},
		{"bad dedup window", func(c *Config) { c.DedupWindow = "soon" }, "dedup_window"},
		{"valid dedup window", func(c *Config) { c.DedupWindow = "30s" }, ""},
		{"negative recent rows", func(c *Config) { c.UI.RecentRows = -1 }, "recent_rows"},
		{"bad sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"file exporter without path", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "file"
			c.Tracing.FilePath = ""
		}, "file_path is required"},
		{"otlp exporter without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}, "otlp_endpoint is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		window string
		want   time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"30s", 30 * time.Second},
		{"5m", 5 * time.Minute},
		{"garbage", 0},
		{"-10s", 0},
	}

	for _, tt := range tests {
		t.Run(tt.window, func(t *testing.T) {
			cfg := Config{DedupWindow: tt.window}
			require.Equal(t, tt.want, cfg.Window())
		})
	}
}

func TestDefaultConfigTemplate_ParsesAsYAML(t *testing.T) {
	var raw struct {
		Admin       string `yaml:"admin"`
		Custodian   string `yaml:"custodian"`
		DedupWindow string `yaml:"dedup_window"`
		UI          struct {
			RecentRows  int  `yaml:"recent_rows"`
			AutoRefresh bool `yaml:"auto_refresh"`
		} `yaml:"ui"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &raw),
		"the commented template must stay valid YAML")

	// The template's values match the programmatic defaults.
	defaults := Defaults()
	require.Equal(t, defaults.Admin, raw.Admin)
	require.Equal(t, defaults.Custodian, raw.Custodian)
	require.Equal(t, defaults.DedupWindow, raw.DedupWindow)
	require.Equal(t, defaults.UI.RecentRows, raw.UI.RecentRows)
	require.Equal(t, defaults.UI.AutoRefresh, raw.UI.AutoRefresh)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
