// Package dashboard implements the read-only monitoring mode: aggregate
// stats, registered classes, recent ledger activity, and a live
// observation feed.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/reclaim/internal/keys"
	"github.com/zjrosen/reclaim/internal/mode"
	"github.com/zjrosen/reclaim/internal/pubsub"
	"github.com/zjrosen/reclaim/internal/recycling"
)

// maxFeedEntries caps the observation feed so long sessions don't grow
// without bound.
const maxFeedEntries = 100

// defaultRecentRows is used when the config doesn't set ui.recent_rows.
const defaultRecentRows = 20

// FocusPane represents which pane has focus.
type FocusPane int

const (
	FocusRecords FocusPane = iota
	FocusClasses
)

// Model holds the dashboard state.
type Model struct {
	services mode.Services
	keys     keys.KeyMap

	ctx    context.Context
	cancel context.CancelFunc
	events <-chan recycling.Event

	// Snapshots refreshed from the service
	stats   recycling.Stats
	classes []recycling.ClassConfig
	records []recycling.Record
	paused  bool

	// Observation feed, newest first
	feed []feedEntry

	// Navigation
	focus       FocusPane
	selectedIdx int
	showHelp    bool

	// Layout
	width  int
	height int
}

// feedEntry is one rendered observation line.
type feedEntry struct {
	at   time.Time
	kind recycling.EventType
	text string
}

// dbChangedMsg signals an external database modification.
type dbChangedMsg struct{}

// refreshTickMsg drives periodic refresh when auto-refresh is enabled.
type refreshTickMsg struct{}

// New creates a dashboard controller.
func New(services mode.Services) Model {
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		services: services,
		keys:     keys.DefaultKeyMap(),
		ctx:      ctx,
		cancel:   cancel,
	}
	if services.Service != nil {
		m.events = services.Service.Subscribe(ctx)
	}
	m.refresh()
	return m
}

// recentRows returns the configured number of visible ledger rows.
func (m Model) recentRows() int {
	if m.services.Config != nil && m.services.Config.UI.RecentRows > 0 {
		return m.services.Config.UI.RecentRows
	}
	return defaultRecentRows
}

// refresh pulls fresh snapshots from the service.
func (m *Model) refresh() {
	svc := m.services.Service
	if svc == nil {
		return
	}
	m.stats = svc.GetStats()
	m.classes = svc.ListClasses()
	m.records = svc.RecentRecords(m.recentRows())
	m.paused = svc.Paused()

	if m.selectedIdx >= len(m.records) {
		m.selectedIdx = max(len(m.records)-1, 0)
	}
}

// Init returns initial commands for the mode.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listenEvents()}
	if m.services.Changes != nil {
		cmds = append(cmds, m.listenChanges())
	}
	if m.services.Config != nil && m.services.Config.UI.AutoRefresh {
		cmds = append(cmds, refreshTick())
	}
	return tea.Batch(cmds...)
}

// SetSize handles terminal resize.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	return m
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case recycling.Event:
		m.feed = append([]feedEntry{formatEvent(msg)}, m.feed...)
		if len(m.feed) > maxFeedEntries {
			m.feed = m.feed[:maxFeedEntries]
		}
		m.refresh()
		return m, m.listenEvents()

	case dbChangedMsg:
		m.refresh()
		return m, m.listenChanges()

	case refreshTickMsg:
		m.refresh()
		return m, refreshTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help):
			m.showHelp = false
		case key.Matches(msg, m.keys.Quit):
			m.showHelp = false
			if msg.String() == "ctrl+c" {
				m.cancel()
				return m, tea.Quit
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Escape):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Refresh):
		m.refresh()

	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == FocusRecords {
			m.focus = FocusClasses
		} else {
			m.focus = FocusRecords
		}
		m.selectedIdx = 0

	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < m.focusLen()-1 {
			m.selectedIdx++
		}

	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}

	case key.Matches(msg, m.keys.Top):
		m.selectedIdx = 0

	case key.Matches(msg, m.keys.Bottom):
		m.selectedIdx = max(m.focusLen()-1, 0)
	}

	return m, nil
}

// focusLen returns the item count of the focused pane.
func (m Model) focusLen() int {
	if m.focus == FocusClasses {
		return len(m.classes)
	}
	return len(m.records)
}

// listenEvents waits for the next service observation.
func (m Model) listenEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return pubsub.ListenCmd(m.ctx, m.events)
}

// listenChanges waits for the next external database change signal.
func (m Model) listenChanges() tea.Cmd {
	ctx := m.ctx
	changes := m.services.Changes
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			return dbChangedMsg{}
		}
	}
}

// refreshTick schedules the next periodic refresh.
func refreshTick() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}
