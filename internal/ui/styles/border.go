package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rounded border pieces for the titled panes.
const (
	cornerTopLeft     = "╭"
	cornerTopRight    = "╮"
	cornerBottomLeft  = "╰"
	cornerBottomRight = "╯"
	edgeHorizontal    = "─"
	edgeVertical      = "│"
)

// TitledPane frames content in a rounded border with the title woven
// into the top edge: ╭─ Ledger ────╮. The border picks up
// focusedColor when the pane has focus.
func TitledPane(content, title string, width, height int, focused bool, titleColor, focusedColor lipgloss.TerminalColor) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = focusedColor
	}

	border := lipgloss.NewStyle().Foreground(borderColor)
	titled := lipgloss.NewStyle().Foreground(titleColor)

	inner := width - 2
	if inner < 1 {
		inner = 1
	}
	rows := height - 2
	if rows < 1 {
		rows = 1
	}

	// lipgloss handles wrapping and truncation of the body.
	body := lipgloss.NewStyle().Width(inner).Height(rows).Render(content)
	lines := strings.Split(body, "\n")

	var b strings.Builder
	b.WriteString(topEdge(title, inner, border, titled))
	b.WriteString("\n")
	for i := 0; i < rows; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if pad := inner - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		b.WriteString(border.Render(edgeVertical))
		b.WriteString(line)
		b.WriteString(border.Render(edgeVertical))
		b.WriteString("\n")
	}
	b.WriteString(border.Render(cornerBottomLeft + strings.Repeat(edgeHorizontal, inner) + cornerBottomRight))

	return b.String()
}

// topEdge renders the top border, embedding the title when the pane is
// wide enough for "─ title ─" plus the corners.
func topEdge(title string, inner int, border, titled lipgloss.Style) string {
	if inner < 1 {
		return border.Render(cornerTopLeft + cornerTopRight)
	}

	plain := cornerTopLeft + strings.Repeat(edgeHorizontal, inner) + cornerTopRight
	if title == "" || inner < 4 {
		return border.Render(plain)
	}

	room := inner - 4
	if lipgloss.Width(title) > room {
		title = TruncateWithEllipsis(title, room)
	}

	trailing := inner - 3 - lipgloss.Width(title)
	if trailing < 0 {
		trailing = 0
	}

	return border.Render(cornerTopLeft+edgeHorizontal+" ") +
		titled.Render(title) +
		border.Render(" "+strings.Repeat(edgeHorizontal, trailing)+cornerTopRight)
}

// TruncateWithEllipsis clips a string to maxWidth display cells,
// replacing the tail with "..." when it does not fit.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	var out strings.Builder
	width := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if width+rw > maxWidth-3 {
			break
		}
		out.WriteRune(r)
		width += rw
	}
	return out.String() + "..."
}
