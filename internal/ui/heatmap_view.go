package ui

import (
	"strings"

	"ble-link.klederson.com/internal/heatmap"
	"github.com/charmbracelet/lipgloss"
)

// cellWidth is the number of columns one heatmap cell occupies.
const cellWidth = 4

// RenderHeatmap draws each grid value as a colored block with the caption
// below it.
func RenderHeatmap(grid heatmap.Grid, width, height int) string {
	innerW := max(20, width-4)
	rows := make([]string, 0, heatmap.Rows)
	for _, row := range grid {
		var sb strings.Builder
		for _, v := range row {
			cell := lipgloss.NewStyle().
				Background(lipgloss.Color(heatmap.ColorFor(v))).
				Render(strings.Repeat(" ", cellWidth-1))
			sb.WriteString(cell + " ")
		}
		rows = append(rows, sb.String())
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		strings.Join(rows, "\n"),
		"",
		StyleCaption.Render(heatmap.Caption),
		heatmapLegend(grid),
	)
	lines := []string{
		StylePanelTitle.Render("HEATMAP"),
		StyleSeparator.Render(strings.Repeat("-", innerW)),
		lipgloss.PlaceHorizontal(innerW, lipgloss.Center, body),
	}
	return panel(strings.Join(lines, "\n"), width, height, false)
}

// heatmapLegend shows the palette from zero up to the grid's peak.
func heatmapLegend(grid heatmap.Grid) string {
	var sb strings.Builder
	for v := 0; v <= grid.Max(); v++ {
		sb.WriteString(lipgloss.NewStyle().
			Background(lipgloss.Color(heatmap.ColorFor(v))).
			Render(strings.Repeat(" ", cellWidth)))
	}
	return StyleLabel.Render("low ") + sb.String() + StyleLabel.Render(" high")
}
