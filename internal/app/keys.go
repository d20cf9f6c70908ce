package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of both screens.
type KeyMap struct {
	ScanScreen key.Binding
	HeatScreen key.Binding
	NextScreen key.Binding
	Scan       key.Binding
	Up         key.Binding
	Down       key.Binding
	Connect    key.Binding
	Input      key.Binding
	Send       key.Binding
	Blur       key.Binding
	Disconnect key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScanScreen: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "scan")),
		HeatScreen: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "heatmap")),
		NextScreen: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
		Scan:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Connect:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
		Input:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "type")),
		Send:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Blur:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
		Disconnect: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextScreen, k.Scan, k.Connect, k.Input, k.Disconnect, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ScanScreen, k.HeatScreen, k.NextScreen},
		{k.Scan, k.Up, k.Down, k.Connect},
		{k.Input, k.Send, k.Blur, k.Disconnect},
		{k.Help, k.Quit},
	}
}

// inputKeys are the bindings shown while the send field has focus.
type inputKeys struct{ k KeyMap }

func (i inputKeys) ShortHelp() []key.Binding {
	return []key.Binding{i.k.Send, i.k.Blur}
}

func (i inputKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{i.ShortHelp()}
}
