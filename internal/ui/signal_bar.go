package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderSignalBar maps RSSI -100..-30 dBm to a filled bar of width cells.
func renderSignalBar(rssi float64, width int) string {
	ratio := (rssi + 100.0) / 70.0
	ratio = math.Min(math.Max(ratio, 0), 1)
	filled := int(math.Round(ratio * float64(width)))

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := lipgloss.NewStyle().Foreground(lipgloss.Color(proximityColor(rssi))).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

// renderSparkline draws the last width values as a one-line trend.
func renderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	rng := math.Max(maxV-minV, 1)

	start := max(0, len(values)-width)
	var sb strings.Builder
	for _, v := range values[start:] {
		idx := int((v - minV) / rng * float64(len(chars)-1))
		sb.WriteByte(chars[min(max(idx, 0), len(chars)-1)])
	}
	return sb.String()
}

// proximityColor maps RSSI to a green shade (brighter = closer).
func proximityColor(rssi float64) string {
	switch {
	case rssi > -50:
		return "#00FF41"
	case rssi > -60:
		return "#00CC33"
	case rssi > -70:
		return "#00AA22"
	case rssi > -80:
		return "#008F11"
	default:
		return "#005511"
	}
}
