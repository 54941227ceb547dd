package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/reclaim/internal/recycling"
	"github.com/zjrosen/reclaim/internal/ui/styles"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	// Body fills the space between header and footer
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	bodyHeight := max(m.height-headerHeight-footerHeight, 3)

	// Left: recent activity. Right: classes over observation feed.
	leftWidth := m.width * 3 / 5
	rightWidth := m.width - leftWidth

	classesHeight := bodyHeight / 2
	feedHeight := bodyHeight - classesHeight

	left := styles.TitledPane(
		m.renderRecords(leftWidth-2),
		fmt.Sprintf("Recent Activity (%d total)", m.stats.TotalRecyclings),
		leftWidth, bodyHeight,
		m.focus == FocusRecords,
		styles.OverlayTitleColor, styles.BorderHighlightFocusColor,
	)

	classes := styles.TitledPane(
		m.renderClasses(rightWidth-2),
		fmt.Sprintf("Classes (%d active)", m.stats.ActiveClasses),
		rightWidth, classesHeight,
		m.focus == FocusClasses,
		styles.OverlayTitleColor, styles.BorderHighlightFocusColor,
	)

	feed := styles.TitledPane(
		m.renderFeed(rightWidth-2, feedHeight-2),
		"Observations",
		rightWidth, feedHeight,
		false,
		styles.OverlayTitleColor, styles.BorderHighlightFocusColor,
	)

	right := lipgloss.JoinVertical(lipgloss.Left, classes, feed)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderHeader renders the stats bar.
func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor).Padding(0, 1)
	statStyle := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.StatusSuccessColor)

	parts := []string{
		titleStyle.Render("reclaim"),
		statStyle.Render("recyclings ") + valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalRecyclings)),
		statStyle.Render("  points ") + valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalPoints)),
		statStyle.Render("  active classes ") + valueStyle.Render(fmt.Sprintf("%d", m.stats.ActiveClasses)),
	}

	if m.paused {
		pausedStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.StatusWarningColor)
		parts = append(parts, pausedStyle.Render("  ■ PAUSED"))
	}

	return strings.Join(parts, "")
}

// renderFooter renders the key hint bar.
func (m Model) renderFooter() string {
	hints := "j/k navigate · tab switch pane · r refresh · ? help · q quit"
	return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Padding(0, 1).Render(hints)
}

// renderRecords renders the recent ledger entries, newest last.
func (m Model) renderRecords(width int) string {
	if len(m.records) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true).
			Padding(1, 2).Render("No recyclings yet")
	}

	idStyle := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
	pointsStyle := lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)

	var sb strings.Builder
	for i, rec := range m.records {
		prefix := " "
		if m.focus == FocusRecords && i == m.selectedIdx {
			prefix = styles.SelectionIndicatorStyle.Render(">")
		}

		line := fmt.Sprintf("%s%s %s %s %s/%s %s",
			prefix,
			idStyle.Render(fmt.Sprintf("#%d", rec.Seq)),
			methodBadge(rec.Method),
			rec.Actor,
			rec.ClassID, rec.UnitID,
			pointsStyle.Render(fmt.Sprintf("+%d", rec.Points)),
		)
		sb.WriteString(truncateLine(line, width))
		if i < len(m.records)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderClasses renders the registry listing.
func (m Model) renderClasses(width int) string {
	if len(m.classes) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true).
			Padding(1, 2).Render("No classes registered")
	}

	activeStyle := lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)
	inactiveStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	rateStyle := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)

	var sb strings.Builder
	for i, cfg := range m.classes {
		prefix := " "
		if m.focus == FocusClasses && i == m.selectedIdx {
			prefix = styles.SelectionIndicatorStyle.Render(">")
		}

		badge := activeStyle.Render("●")
		if !cfg.Active {
			badge = inactiveStyle.Render("○")
		}

		line := fmt.Sprintf("%s%s %s %s",
			prefix, badge, cfg.ClassID,
			rateStyle.Render(fmt.Sprintf("%d pts · %d recycled", cfg.PointsPerUnit, cfg.TotalRecycled)),
		)
		sb.WriteString(truncateLine(line, width))
		if i < len(m.classes)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderFeed renders the observation feed, newest first.
func (m Model) renderFeed(width, height int) string {
	if len(m.feed) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true).
			Padding(1, 2).Render("Waiting for observations")
	}

	timeStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	var sb strings.Builder
	shown := 0
	for _, entry := range m.feed {
		if height > 0 && shown >= height {
			break
		}
		line := fmt.Sprintf("%s %s",
			timeStyle.Render(entry.at.Format("15:04:05")),
			entry.text,
		)
		if shown > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(truncateLine(line, width))
		shown++
	}
	return sb.String()
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	help := strings.Join([]string{
		"Dashboard keys",
		"",
		"  j/k, up/down   move selection",
		"  g/G            jump to first/last",
		"  tab            switch pane",
		"  r              refresh now",
		"  ?              toggle this help",
		"  q, esc         quit",
	}, "\n")

	box := styles.TitledPane(help, "Help", min(m.width, 44), 11,
		true, styles.OverlayTitleColor, styles.BorderHighlightFocusColor)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// methodBadge renders a colored badge for an exchange method.
func methodBadge(method recycling.Method) string {
	if method == recycling.MethodDestruction {
		return lipgloss.NewStyle().Foreground(styles.MethodDestructionColor).Render("[D]")
	}
	return lipgloss.NewStyle().Foreground(styles.MethodTransferColor).Render("[T]")
}

// formatEvent turns a service observation into a feed entry.
func formatEvent(ev recycling.Event) feedEntry {
	var text string
	switch ev.Type {
	case recycling.EventRecycleCompleted:
		text = fmt.Sprintf("%s recycled %s/%s for %d pts", ev.Actor, ev.ClassID, ev.UnitID, ev.Points)
	case recycling.EventBatchItemFailed:
		errStyle := lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
		text = errStyle.Render(fmt.Sprintf("batch item failed: %s/%s (%s)", ev.ClassID, ev.UnitID, ev.Reason))
	case recycling.EventClassRegistered:
		text = fmt.Sprintf("class %s registered at %d pts", ev.ClassID, ev.Rate)
	case recycling.EventClassRateUpdated:
		text = fmt.Sprintf("class %s rate changed to %d pts", ev.ClassID, ev.Rate)
	case recycling.EventClassStatusChanged:
		state := "deactivated"
		if ev.Active {
			state = "activated"
		}
		text = fmt.Sprintf("class %s %s", ev.ClassID, state)
	case recycling.EventPauseChanged:
		if ev.Paused {
			text = lipgloss.NewStyle().Foreground(styles.StatusWarningColor).Render("operations paused")
		} else {
			text = "operations resumed"
		}
	case recycling.EventRescuePerformed:
		text = fmt.Sprintf("rescue: %s/%s moved to %s", ev.ClassID, ev.UnitID, ev.Actor)
	default:
		text = string(ev.Type)
	}
	return feedEntry{at: ev.Timestamp, kind: ev.Type, text: text}
}

// truncateLine trims a rendered line to the pane width.
func truncateLine(line string, width int) string {
	if width <= 0 || lipgloss.Width(line) <= width {
		return line
	}
	// Cheap rune-wise trim; styled sequences near the cut may lose color
	// but never corrupt the layout since lipgloss re-measures widths.
	var sb strings.Builder
	for _, r := range line {
		if lipgloss.Width(sb.String())+1 > width {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
