// Package app contains the root application model.
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/reclaim/internal/config"
	"github.com/zjrosen/reclaim/internal/log"
	"github.com/zjrosen/reclaim/internal/mode"
	"github.com/zjrosen/reclaim/internal/mode/dashboard"
	"github.com/zjrosen/reclaim/internal/recycling"
	"github.com/zjrosen/reclaim/internal/watcher"
)

// Model is the root application state.
type Model struct {
	dashboard mode.Controller
	services  mode.Services

	width  int
	height int

	// File watcher for auto-refresh
	watcherHandle *watcher.Watcher
}

// New creates the application model. dbPath is watched for external
// changes when auto-refresh is enabled.
func New(service *recycling.Service, cfg *config.Config, dbPath string) Model {
	var (
		watcherHandle *watcher.Watcher
		changes       <-chan struct{}
	)

	if cfg != nil && cfg.UI.AutoRefresh && dbPath != "" {
		w, err := watcher.New(watcher.DefaultConfig(dbPath))
		if err == nil {
			ch, startErr := w.Start()
			if startErr == nil {
				watcherHandle = w
				changes = ch
			} else {
				_ = w.Stop()
			}
		}
		// The app works fine without auto-refresh, so watcher init
		// errors are logged and otherwise ignored.
		if watcherHandle == nil {
			log.Warn(log.CatWatcher, "auto-refresh disabled, watcher unavailable", "path", dbPath)
		}
	}

	services := mode.Services{
		Service: service,
		Config:  cfg,
		DBPath:  dbPath,
		Changes: changes,
	}

	return Model{
		dashboard:     dashboard.New(services),
		services:      services,
		watcherHandle: watcherHandle,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.dashboard.Init()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.dashboard = m.dashboard.SetSize(size.Width, size.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.dashboard, cmd = m.dashboard.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	return m.dashboard.View()
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.watcherHandle != nil {
		return m.watcherHandle.Stop()
	}
	return nil
}
