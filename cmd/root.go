package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/reclaim/internal/app"
	"github.com/zjrosen/reclaim/internal/config"
	"github.com/zjrosen/reclaim/internal/log"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	actorFlag string
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "reclaim",
	Short:   "A recycling registry and point ledger",
	Long: `Reclaim tracks recyclable asset classes, accepts units for recycling by
destruction or custodial transfer, and awards points into an immutable
ledger. Running without a subcommand opens the monitoring dashboard.`,
	Version: version,
	RunE:    runDashboard,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/reclaim/config.yaml)")
	rootCmd.PersistentFlags().String("db", "",
		"path to the reclaim database file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&actorFlag, "actor", "a", "",
		"acting identity (defaults to the configured admin for administrative commands)")

	// Bind flags to viper
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("db_path", defaults.DBPath)
	viper.SetDefault("admin", defaults.Admin)
	viper.SetDefault("custodian", defaults.Custodian)
	viper.SetDefault("dedup_window", defaults.DedupWindow)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("ui.recent_rows", defaults.UI.RecentRows)
	viper.SetDefault("ui.auto_refresh", defaults.UI.AutoRefresh)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .reclaim/config.yaml (current directory)
		// 2. ~/.config/reclaim/config.yaml (user config)
		if _, err := os.Stat(".reclaim/config.yaml"); err == nil {
			viper.SetConfigFile(".reclaim/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "reclaim"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - write the commented default to
		// the user config directory and continue with defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "reclaim", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
		}
	}

	_ = viper.Unmarshal(&cfg)

	if debugFlag || os.Getenv("RECLAIM_DEBUG") != "" {
		logPath := os.Getenv("RECLAIM_LOG")
		if logPath == "" {
			logPath = "reclaim-debug.log"
		}
		if _, err := log.Init(logPath); err == nil {
			log.SetEnabled(true)
			log.SetMinLevel(log.LevelDebug)
		}
	}
}

// adminActor returns the acting identity, falling back to the
// configured admin when --actor is not set.
func adminActor() string {
	if actorFlag != "" {
		return actorFlag
	}
	return cfg.Admin
}

func runDashboard(_ *cobra.Command, _ []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	model := app.New(rt.Service, &cfg, rt.DBPath())
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
