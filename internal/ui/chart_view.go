package ui

import (
	"fmt"
	"strings"

	"ble-link.klederson.com/internal/config"
	"ble-link.klederson.com/internal/signal"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// RenderChart plots the rolling signal samples as a line sized to the
// panel, with one "Ns" label per sample under the x axis.
func RenderChart(buf *signal.Buffer, width, height int) string {
	values := buf.Values()
	innerW := max(20, width-4)
	innerH := max(6, height-2)

	lines := []string{StylePanelTitle.Render("RSSI HISTORY"), StyleSeparator.Render(strings.Repeat("-", innerW))}
	if len(values) == 0 {
		lines = append(lines, "", StyleHelp.Render(" No samples yet"))
		return panel(strings.Join(lines, "\n"), width, height, false)
	}

	plotH := max(3, min(config.ChartHeight, innerH-len(lines)-5))
	plotW := max(len(values), innerW-10)
	plot := PlotSignal(values, plotW, plotH)
	lines = append(lines, lipgloss.NewStyle().Foreground(ColorGreen).Render(plot))
	lines = append(lines, StyleLabel.Render(xAxisLabels(plot, len(values), plotW)))

	latest := buf.Last()
	trend := renderSparkline(values, len(values))
	lines = append(lines, "",
		StyleLabel.Render("  Latest ")+StyleValue.Render(fmt.Sprintf("%.0f dBm", latest))+
			"  "+renderSignalBar(latest, min(20, innerW/3))+
			"  "+StyleLabel.Render("trend ")+StyleDeviceRSSI.Render(trend))

	return panel(strings.Join(lines, "\n"), width, height, true)
}

// PlotSignal draws values with asciigraph, y labels in whole dBm.
func PlotSignal(values []float64, width, height int) string {
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.Caption("RSSI (dBm) / time"),
	)
}

// xAxisLabels spreads "1s".."Ns" across the plot width, aligned with the
// y axis of plot.
func xAxisLabels(plot string, n, width int) string {
	offset := 0
	if first, _, _ := strings.Cut(plot, "\n"); first != "" {
		if i := strings.IndexAny(first, "┤┼"); i >= 0 {
			offset = len([]rune(first[:i])) + 1
		}
	}

	row := []rune(strings.Repeat(" ", offset+width+4))
	next := 0
	for i := 0; i < n; i++ {
		col := offset
		if n > 1 {
			col += i * (width - 1) / (n - 1)
		}
		label := fmt.Sprintf("%ds", i+1)
		if col < next || col+len(label) > len(row) {
			continue
		}
		copy(row[col:], []rune(label))
		next = col + len(label) + 1
	}
	return strings.TrimRight(string(row), " ")
}
