package ui

import (
	"fmt"
	"strings"

	"ble-link.klederson.com/internal/session"
	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar. spin is shown next to the
// phase while the controller is busy.
func RenderStatusBar(width int, st session.State, spin string) string {
	phase := "[" + strings.ToUpper(st.Phase.String()) + "]"
	var status string
	switch st.Phase {
	case session.PhaseIdle:
		status = StyleStatusIdle.Render(phase)
	case session.PhaseScanning, session.PhaseConnecting, session.PhaseDisconnecting:
		status = StyleStatusActive.Render(spin + " " + phase)
	default:
		status = StyleStatusActive.Render(phase)
	}

	info := fmt.Sprintf(" Devices: %d", len(st.Devices))
	if st.Connected() {
		info += fmt.Sprintf("  Link: %s  Chars: %d  Subs: %d",
			st.Device.DisplayName(), len(st.Characteristics), len(st.Subscribed))
	}

	content := status + StyleStatusBar.Render(info)
	gap := max(0, width-lipgloss.Width(content))
	return StyleStatusBar.Width(width).Render(content + strings.Repeat(" ", gap))
}
