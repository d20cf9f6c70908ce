package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ComposeLayout stacks the menu bar, the active screen and the footer.
func ComposeLayout(menuBar, body, help, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, body, help, statusBar)
}

// clampLines pads or truncates s to exactly height lines.
// lipgloss Height() only sets a minimum; it won't truncate overflow.
func clampLines(s string, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// panel wraps content in a bordered box of exactly width x height cells.
func panel(content string, width, height int, active bool) string {
	sty := StylePanelBorder
	if active {
		sty = StylePanelActive
	}
	innerH := max(1, height-2)
	rendered := sty.Width(max(1, width-2)).Height(innerH).Render(clampLines(content, innerH))
	return clampLines(rendered, height)
}
