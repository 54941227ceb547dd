package dashboard

import (
	"context"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/reclaim/internal/mode"
	"github.com/zjrosen/reclaim/internal/recycling"
	"github.com/zjrosen/reclaim/internal/testutil"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func newTestModel(t *testing.T) (Model, *testutil.Fixture) {
	t.Helper()

	actor := recycling.Identity("user:alice")
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithClass("glass", 5, testutil.Inactive()).
		WithUnits("pet-bottle", actor, "b-1", "b-2").
		Build()

	_, err := fixture.Service.RecycleByDestruction(context.Background(), actor, "pet-bottle", "b-1")
	require.NoError(t, err)

	m := New(mode.Services{Service: fixture.Service})
	m = m.SetSize(120, 40).(Model)
	return m, fixture
}

func TestView_ShowsStatsAndClasses(t *testing.T) {
	m, _ := newTestModel(t)

	view := stripANSI(m.View())
	require.Contains(t, view, "reclaim")
	require.Contains(t, view, "pet-bottle")
	require.Contains(t, view, "glass")
	require.Contains(t, view, "Recent Activity (1 total)")
	require.Contains(t, view, "Classes (1 active)")
}

func TestView_ShowsRecentRecord(t *testing.T) {
	m, _ := newTestModel(t)

	view := stripANSI(m.View())
	require.Contains(t, view, "user:alice")
	require.Contains(t, view, "+10")
}

func TestView_PausedBanner(t *testing.T) {
	m, fixture := newTestModel(t)

	require.NoError(t, fixture.Service.Pause(testutil.Admin))
	m.refresh()

	view := stripANSI(m.View())
	require.Contains(t, view, "PAUSED")
}

func TestUpdate_EventAppendsToFeed(t *testing.T) {
	m, _ := newTestModel(t)

	ev := recycling.Event{
		Type:      recycling.EventRecycleCompleted,
		Actor:     "user:alice",
		ClassID:   "pet-bottle",
		UnitID:    "b-2",
		Points:    10,
		Timestamp: time.Now(),
	}
	updated, _ := m.Update(ev)
	m = updated.(Model)

	require.Len(t, m.feed, 1)
	view := stripANSI(m.View())
	require.Contains(t, view, "recycled pet-bottle/b-2 for 10 pts")
}

func TestUpdate_BatchFailureEventInFeed(t *testing.T) {
	m, _ := newTestModel(t)

	ev := recycling.Event{
		Type:      recycling.EventBatchItemFailed,
		Actor:     "user:bob",
		ClassID:   "pet-bottle",
		UnitID:    "b-2",
		Reason:    "not owner",
		Timestamp: time.Now(),
	}
	updated, _ := m.Update(ev)
	m = updated.(Model)

	view := stripANSI(m.View())
	require.Contains(t, view, "batch item failed: pet-bottle/b-2 (not owner)")
}

func TestUpdate_FeedIsCapped(t *testing.T) {
	m, _ := newTestModel(t)

	for i := 0; i < maxFeedEntries+10; i++ {
		updated, _ := m.Update(recycling.Event{
			Type:      recycling.EventRecycleCompleted,
			Timestamp: time.Now(),
		})
		m = updated.(Model)
	}
	require.Len(t, m.feed, maxFeedEntries)
}

func TestUpdate_Navigation(t *testing.T) {
	m, _ := newTestModel(t)

	require.Equal(t, FocusRecords, m.focus)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	require.Equal(t, FocusClasses, m.focus)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = updated.(Model)
	require.Equal(t, 1, m.selectedIdx)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = updated.(Model)
	require.Equal(t, 0, m.selectedIdx)
}

func TestUpdate_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = updated.(Model)
	require.True(t, m.showHelp)
	require.Contains(t, stripANSI(m.View()), "Dashboard keys")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	require.False(t, m.showHelp)
}

func TestUpdate_QuitCancelsSubscription(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)

	select {
	case <-m.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription context not cancelled on quit")
	}
}

func TestUpdate_DBChangedRefreshes(t *testing.T) {
	m, fixture := newTestModel(t)

	actor := recycling.Identity("user:alice")
	_, err := fixture.Service.RecycleByDestruction(context.Background(), actor, "pet-bottle", "b-2")
	require.NoError(t, err)

	// Drain any published event first; the external-change path must
	// refresh on its own.
	updated, _ := m.Update(dbChangedMsg{})
	m = updated.(Model)

	require.Equal(t, uint64(2), m.stats.TotalRecyclings)
}
