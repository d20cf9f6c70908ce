package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"ble-link.klederson.com/internal/bluetooth"
	"ble-link.klederson.com/internal/config"
	"ble-link.klederson.com/internal/heatmap"
	"ble-link.klederson.com/internal/session"
	"ble-link.klederson.com/internal/signal"
	"ble-link.klederson.com/internal/ui"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen selects which subtree the root model renders.
type Screen int

const (
	ScreenScan Screen = iota
	ScreenHeat
)

func (s Screen) String() string {
	if s == ScreenHeat {
		return "heat"
	}
	return "scan"
}

// Options configures the root model.
type Options struct {
	Controller    *session.Controller
	Adapter       string
	Demo          bool
	ShowUnnamed   bool
	ChartInterval time.Duration
	Generator     *signal.Generator
	Logger        *slog.Logger
}

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	controller *session.Controller
	buffer     *signal.Buffer
	generator  *signal.Generator
	log        *slog.Logger
}

// AppModel is the root Bubble Tea model for BLE-LINK.
type AppModel struct {
	width  int
	height int

	screen      Screen
	adapter     string
	demo        bool
	showUnnamed bool
	interval    time.Duration
	cursor      int

	// chartGen invalidates chart ticks scheduled before the last screen change.
	chartGen uint64

	// Cached snapshot
	state session.State

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    KeyMap

	shared *shared
}

// New creates a new AppModel.
func New(opts Options) AppModel {
	if opts.ChartInterval <= 0 {
		opts.ChartInterval = config.ChartInterval
	}
	if opts.Generator == nil {
		opts.Generator = signal.NewGenerator(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ti := textinput.New()
	ti.Placeholder = "Enter string to send"
	ti.Prompt = "> "
	ti.Width = 30
	ti.PromptStyle = ui.StyleValue
	ti.PlaceholderStyle = ui.StyleHelp

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.ColorMatrixGreen)

	return AppModel{
		screen:      ScreenScan,
		adapter:     opts.Adapter,
		demo:        opts.Demo,
		showUnnamed: opts.ShowUnnamed,
		interval:    opts.ChartInterval,
		state:       opts.Controller.Snapshot(),
		input:       ti,
		spinner:     s,
		help:        help.New(),
		keys:        DefaultKeyMap(),
		shared: &shared{
			controller: opts.Controller,
			buffer:     signal.Seeded(),
			generator:  opts.Generator,
			log:        opts.Logger,
		},
	}
}

// Attach routes controller state changes into p. Must be called before p.Run().
func (m *AppModel) Attach(p *tea.Program) {
	m.shared.controller.SetOnChange(func() {
		p.Send(SessionChangedMsg{})
	})
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.permissionsCmd(),
		m.spinner.Tick,
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width/2-20)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionChangedMsg, PermissionsMsg:
		m.refresh()
		return m, nil

	case ChartTickMsg:
		if msg.Gen != m.chartGen || m.screen != ScreenHeat {
			return m, nil
		}
		m.shared.buffer.Push(m.shared.generator.Next())
		return m, m.chartTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case key.Matches(msg, m.keys.Blur):
			m.input.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Send):
			// The field keeps its text so the same payload can be resent.
			return m, m.sendCmd(m.input.Value())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.ScanScreen):
		return m.switchTo(ScreenScan)
	case key.Matches(msg, m.keys.HeatScreen):
		return m.switchTo(ScreenHeat)
	case key.Matches(msg, m.keys.NextScreen):
		if m.screen == ScreenScan {
			return m.switchTo(ScreenHeat)
		}
		return m.switchTo(ScreenScan)
	}

	if m.screen != ScreenScan {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Scan):
		return m, m.scanCmd()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Connect):
		devices := m.visible()
		if m.cursor < len(devices) && !m.state.Connected() {
			return m, m.connectCmd(devices[m.cursor].ID)
		}

	case key.Matches(msg, m.keys.Input):
		if m.state.Connected() {
			cmd := m.input.Focus()
			return m, cmd
		}

	case key.Matches(msg, m.keys.Disconnect):
		return m, m.disconnectCmd()
	}

	return m, nil
}

// switchTo changes the rendered screen. Entering the heat screen starts a
// fresh chart; leaving it stops the ticker.
func (m AppModel) switchTo(s Screen) (tea.Model, tea.Cmd) {
	if s == m.screen {
		return m, nil
	}
	m.screen = s
	m.chartGen++
	m.shared.log.Debug("screen changed", "screen", s)
	if s == ScreenHeat {
		m.shared.buffer.Reset(signal.Placeholder...)
		return m, m.chartTick()
	}
	return m, nil
}

func (m *AppModel) refresh() {
	m.state = m.shared.controller.Snapshot()
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	if !m.state.Connected() && m.input.Focused() {
		m.input.Blur()
	}
}

func (m AppModel) visible() []bluetooth.Device {
	return session.Visible(m.state.Devices, m.showUnnamed)
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing " + config.AppName + "..."
	}

	tabs := []ui.Tab{
		{Key: "1", Label: "Scan", Active: m.screen == ScreenScan},
		{Key: "2", Label: "Heatmap", Active: m.screen == ScreenHeat},
	}
	menuBar := ui.RenderMenuBar(m.width, m.adapter, m.demo, tabs)
	statusBar := ui.RenderStatusBar(m.width, m.state, m.spinner.View())

	var keys help.KeyMap = m.keys
	if m.input.Focused() {
		keys = inputKeys{m.keys}
	}
	helpView := ui.StyleHelp.Render(m.help.View(keys))

	bodyH := max(8, m.height-2-lipgloss.Height(helpView))

	var body string
	switch m.screen {
	case ScreenHeat:
		chartH := max(8, bodyH-heatmap.Rows-6)
		body = lipgloss.JoinVertical(lipgloss.Left,
			ui.RenderChart(m.shared.buffer, m.width, chartH),
			ui.RenderHeatmap(heatmap.Placeholder, m.width, max(4, bodyH-chartH)),
		)
	default:
		body = ui.RenderScanView(ui.ScanView{
			State:   m.state,
			Devices: m.visible(),
			Cursor:  m.cursor,
			Input:   m.input.View(),
			Width:   m.width,
			Height:  bodyH,
		})
	}

	return ui.ComposeLayout(menuBar, body, helpView, statusBar)
}

func (m AppModel) permissionsCmd() tea.Cmd {
	c := m.shared.controller
	return func() tea.Msg {
		report := c.RequestPermissions(context.Background())
		return PermissionsMsg{Denied: len(report.Denied())}
	}
}

func (m AppModel) scanCmd() tea.Cmd {
	c := m.shared.controller
	return func() tea.Msg {
		c.StartScan(context.Background())
		return SessionChangedMsg{}
	}
}

func (m AppModel) connectCmd(deviceID string) tea.Cmd {
	c := m.shared.controller
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
		defer cancel()
		c.Connect(ctx, deviceID)
		return SessionChangedMsg{}
	}
}

func (m AppModel) sendCmd(text string) tea.Cmd {
	c := m.shared.controller
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.SendTimeout)
		defer cancel()
		c.Send(ctx, text)
		return SessionChangedMsg{}
	}
}

func (m AppModel) disconnectCmd() tea.Cmd {
	c := m.shared.controller
	return func() tea.Msg {
		c.Disconnect(context.Background())
		return SessionChangedMsg{}
	}
}

func (m AppModel) chartTick() tea.Cmd {
	gen := m.chartGen
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return ChartTickMsg{Gen: gen, Time: t}
	})
}
