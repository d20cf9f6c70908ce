package ui

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"ble-link.klederson.com/internal/bluetooth"
	"ble-link.klederson.com/internal/session"
	"github.com/charmbracelet/lipgloss"
)

// ScanView is everything the scan screen draws.
type ScanView struct {
	State   session.State
	Devices []bluetooth.Device // already filtered for display
	Cursor  int
	Input   string // rendered text input
	Width   int
	Height  int
}

// RenderScanView renders the device list on the left and the connection
// panel on the right.
func RenderScanView(v ScanView) string {
	listW := max(28, v.Width*2/5)
	connW := max(30, v.Width-listW)
	h := max(8, v.Height)

	list := RenderDeviceList(v.Devices, listW, h, v.Cursor, !v.State.Connected())
	conn := RenderConnection(v.State, v.Input, connW, h)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, conn)
}

// RenderDeviceList renders the scrollable device list panel with a cursor.
// The header stays fixed at the top; only the device entries scroll.
func RenderDeviceList(devices []bluetooth.Device, width, height, cursor int, active bool) string {
	innerW := max(10, width-4)
	innerH := max(4, height-2)

	title := StylePanelTitle.Render(fmt.Sprintf("DEVICES [%d]", len(devices)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	header := []string{title, separator}
	devSpace := max(1, innerH-len(header))

	var devLines []string
	if len(devices) == 0 {
		devLines = append(devLines, "",
			StyleHelp.Render(" No devices..."),
			StyleHelp.Render(" Press [s] to scan"))
	} else {
		linesPerDevice := 4 // 3 content + 1 blank
		maxVisible := max(1, devSpace/linesPerDevice)

		// Compute viewport start so cursor is always visible
		viewStart := 0
		if cursor >= maxVisible {
			viewStart = cursor - maxVisible + 1
		}
		for i := viewStart; i < len(devices) && len(devLines) < devSpace; i++ {
			devLines = append(devLines, renderDeviceEntry(devices[i], innerW, i == cursor && active)...)
		}
	}

	return panel(strings.Join(append(header, devLines...), "\n"), width, height, active)
}

func renderDeviceEntry(d bluetooth.Device, maxW int, isCursor bool) []string {
	name := truncRaw(d.DisplayName(), max(4, maxW-4))
	mac := d.ID
	if d.Manufacturer != "" {
		mac += "  " + d.Manufacturer
	}
	rssi := fmt.Sprintf("%ddBm", d.RSSI)
	barW := max(5, min(20, maxW-18))

	if isCursor {
		return []string{
			StyleCursorRow.Render(padRaw(">> "+name, maxW)),
			StyleCursorRow.Render(padRaw("   "+mac, maxW)),
			StyleCursorRow.Render(padRaw("   "+rssi, maxW)),
			"",
		}
	}

	line3 := "   " + StyleDeviceRSSI.Render(fmt.Sprintf("%-7s", rssi))
	if d.RSSI != 0 {
		line3 += " " + renderSignalBar(float64(d.RSSI), barW)
	}
	return []string{
		"   " + StyleDeviceName.Render(name),
		"   " + StyleDeviceMAC.Render(truncRaw(mac, maxW-3)),
		line3,
		"",
	}
}

// RenderConnection renders the connected device, its GATT table, the send
// input and the received values.
func RenderConnection(st session.State, input string, width, height int) string {
	innerW := max(20, width-4)
	lines := []string{StylePanelTitle.Render("CONNECTION"), StyleSeparator.Render(strings.Repeat("-", innerW))}

	if !st.Connected() {
		msg := "Not connected. Select a device and press [enter]."
		if st.Phase == session.PhaseConnecting {
			msg = "Connecting..."
		}
		lines = append(lines, "", StyleHelp.Render(" "+msg))
		return panel(strings.Join(lines, "\n"), width, height, false)
	}

	field := func(label, value string) string {
		return StyleLabel.Render(fmt.Sprintf("  %-9s", label)) + StyleValue.Render(value)
	}
	target := "none"
	if st.Target.IsSet() {
		target = st.Target.CharacteristicUUID
	}
	lines = append(lines,
		field("Device", st.Device.DisplayName()),
		field("Address", st.Device.ID),
		field("Target", target),
		"",
		StyleLabel.Render("  Services"),
	)
	lines = append(lines, RenderServices(st, innerW)...)

	lines = append(lines, "", StyleLabel.Render("  Send ")+input, "")
	lines = append(lines, RenderReceived(st, innerW)...)

	return panel(strings.Join(lines, "\n"), width, height, true)
}

// RenderServices lists every service and its characteristics. Writable
// characteristics are tagged "(Writable)"; the write target and subscribed
// characteristics are marked.
func RenderServices(st session.State, maxW int) []string {
	subscribed := make(map[string]bool, len(st.Subscribed))
	for _, ch := range st.Subscribed {
		subscribed[ch.Key()] = true
	}

	var out []string
	for _, svc := range st.Services {
		out = append(out, "  "+StyleDeviceName.Render(truncRaw(svc.UUID, maxW-2)))
		for _, ch := range svc.Characteristics {
			line := "    " + StyleDeviceMAC.Render(ch.UUID)
			if ch.Caps != 0 {
				line += " " + StyleHelp.Render("["+ch.Caps.String()+"]")
			}
			if ch.Caps.Writable() {
				line += " " + StyleWritable.Render("(Writable)")
			}
			if subscribed[ch.Key()] {
				line += " " + StyleNotify.Render("~")
			}
			if ch.ServiceUUID == st.Target.ServiceUUID && ch.UUID == st.Target.CharacteristicUUID {
				line += " " + StyleWarning.Render("<")
			}
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		out = append(out, StyleHelp.Render("    no services"))
	}
	return out
}

// RenderReceived shows the latest value per subscribed characteristic,
// newest first.
func RenderReceived(st session.State, maxW int) []string {
	out := []string{StyleLabel.Render("  Received")}
	if st.LastReceived == nil {
		return append(out, StyleHelp.Render("    nothing yet"))
	}

	out = append(out, "    "+StyleValue.Render(truncRaw(FormatValue(st.LastReceived.Value), maxW-4)))

	notes := make([]session.Notification, 0, len(st.Received))
	for _, n := range st.Received {
		notes = append(notes, n)
	}
	slices.SortFunc(notes, func(a, b session.Notification) int {
		return b.At.Compare(a.At)
	})
	for _, n := range notes {
		line := fmt.Sprintf("%s  %s", shortUUID(n.CharacteristicUUID), FormatValue(n.Value))
		out = append(out, "    "+StyleNotify.Render(truncRaw(line, maxW-4)))
	}
	return out
}

// FormatValue renders a notification payload as text when it is valid
// UTF-8 and as hex otherwise.
func FormatValue(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

// shortUUID returns the 16-bit alias of a Bluetooth base UUID, or the first
// group of any other UUID.
func shortUUID(u string) string {
	if len(u) == 36 && strings.HasSuffix(u, "-0000-1000-8000-00805f9b34fb") && strings.HasPrefix(u, "0000") {
		return u[4:8]
	}
	if i := strings.IndexByte(u, '-'); i > 0 {
		return u[:i]
	}
	return u
}

// truncRaw truncates s to at most w runes.
func truncRaw(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > w {
		return string(r[:w])
	}
	return s
}

// padRaw pads or truncates s to exactly w runes.
func padRaw(s string, w int) string {
	s = truncRaw(s, w)
	if n := utf8.RuneCountInString(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}
