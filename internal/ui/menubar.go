package ui

import (
	"fmt"
	"strings"

	"ble-link.klederson.com/internal/config"
	"github.com/charmbracelet/lipgloss"
)

// Tab is one entry of the screen switcher shown in the menu bar.
type Tab struct {
	Key    string
	Label  string
	Active bool
}

// RenderMenuBar renders the top menu bar with the screen tabs on the left
// and the adapter on the right.
func RenderMenuBar(width int, adapter string, demo bool, tabs []Tab) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	menu := ""
	for _, t := range tabs {
		label := StyleMenuLabel.Render(t.Label)
		if t.Active {
			label = StyleStatusActive.Render(strings.ToUpper(t.Label))
		}
		menu += "  " + StyleMenuKey.Render("["+t.Key+"]") + label
	}

	adapterInfo := fmt.Sprintf("Adapter: %s", adapter)
	if demo {
		adapterInfo = "Adapter: demo"
	}

	left := StyleMenuKey.Render(title) + menu
	right := StyleMenuLabel.Render(adapterInfo) + " "

	gap := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return StyleMenuBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
