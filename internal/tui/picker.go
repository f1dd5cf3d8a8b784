package tui

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/rangectl/internal/discovery"
)

// ScanFunc discovers backends. The picker calls it from a command.
type ScanFunc func(ctx context.Context) ([]*discovery.Backend, error)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	backends []*discovery.Backend
	err      error
}

// pickerKeyMap defines key bindings for the backend list
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualKeyMap defines key bindings for manual address entry
type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k manualKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k manualKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// backendItem wraps a Backend for use with bubbles/list
type backendItem struct {
	backend *discovery.Backend
}

func (b backendItem) FilterValue() string {
	return b.backend.Name + " " + b.backend.Host + " " + b.backend.IP
}

// backendDelegate renders one backend per two lines
type backendDelegate struct{}

func (d backendDelegate) Height() int                             { return 2 }
func (d backendDelegate) Spacing() int                            { return 1 }
func (d backendDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d backendDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	bi, ok := item.(backendItem)
	if !ok {
		return
	}
	b := bi.backend

	name := "  " + b.Name
	if index == m.Index() {
		name = SelectedMenuItemStyle.Render("→ " + b.Name)
	}

	details := b.WebSocketURL()
	if devices := b.Devices(); len(devices) > 0 {
		details += " • " + strings.Join(devices, ", ")
	}
	if v := b.GetMetadata(discovery.TXTVersion); v != "" {
		details += " • v" + v
	}

	fmt.Fprintf(w, "%s\n    %s", name, SubtitleStyle.Render(details))
}

// PickerModel is the backend discovery screen
type PickerModel struct {
	scan    ScanFunc
	timeout time.Duration

	Scanning bool
	List     list.Model
	Selected *discovery.Backend
	Err      error

	ManualMode bool
	AddrInput  textinput.Model

	Width         int
	Height        int
	Spinner       spinner.Model
	ProgressBar   progress.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          pickerKeyMap
	ManualKeys    manualKeyMap
}

// NewPickerModel creates the discovery screen. timeout is only used to pace
// the progress bar.
func NewPickerModel(scan ScanFunc, timeout time.Duration) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "192.168.1.20:8787"
	input.CharLimit = 64
	input.Width = 30

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	backends := list.New([]list.Item{}, backendDelegate{}, 0, 0)
	backends.Title = "Discovered Backends"
	backends.SetShowStatusBar(false)
	backends.SetFilteringEnabled(true)
	backends.Styles.Title = TitleStyle

	if timeout <= 0 {
		timeout = discovery.DefaultScanTimeout
	}

	return PickerModel{
		scan:        scan,
		timeout:     timeout,
		List:        backends,
		AddrInput:   input,
		Spinner:     s,
		ProgressBar: bar,
		Help:        help.New(),
		Keys: pickerKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter address")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		ManualKeys: manualKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
	}
}

// Init starts scanning immediately
func (m PickerModel) Init() tea.Cmd {
	return m.startScan()
}

func (m PickerModel) startScan() tea.Cmd {
	scan := m.scan
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		func() tea.Msg {
			backends, err := scan(context.Background())
			return scanCompleteMsg{backends: backends, err: err}
		},
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetWidth(msg.Width - 4)
		m.List.SetHeight(msg.Height - 8) // Leave room for header/footer

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.backends))
		for i, b := range msg.backends {
			items[i] = backendItem{backend: b}
		}
		m.List.SetItems(items)

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m PickerModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case m.List.FilterState() == list.Filtering:
		// Typing a filter; every key belongs to the list.

	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.List.SelectedItem().(backendItem); ok {
			m.Selected = item.backend
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil
		}
		m.List.SetItems([]list.Item{})
		m.Err = nil
		return m, m.startScan()

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.AddrInput.SetValue("")
		return m, m.AddrInput.Focus()
	}

	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m PickerModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.AddrInput.Blur()
		return m, nil

	case key.Matches(msg, m.ManualKeys.Confirm):
		b, err := ManualBackend(m.AddrInput.Value())
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Err = nil
		items := append([]list.Item{backendItem{backend: b}}, m.List.Items()...)
		m.List.SetItems(items)
		m.List.Select(0)
		m.ManualMode = false
		m.AddrInput.Blur()
		return m, nil
	}

	m.AddrInput, cmd = m.AddrInput.Update(msg)
	return m, cmd
}

// ManualBackend builds a backend from a typed "host:port" address.
func ManualBackend(addr string) (*discovery.Backend, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return nil, fmt.Errorf("expected host:port: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	return &discovery.Backend{
		Name:         "manual " + addr,
		Host:         host,
		IP:           host,
		Port:         port,
		DiscoveredAt: time.Now(),
	}, nil
}

// View renders the discovery screen
func (m PickerModel) View() string {
	var content, helpText string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		content = m.renderScanning()
		helpText = m.Help.View(m.Keys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer("discover", content, helpText, m.Width, m.Height)
}

func (m PickerModel) renderScanning() string {
	width := m.Width
	if width < MinTerminalWidth {
		width = DefaultWidth
	}

	elapsed := time.Since(m.ScanStartTime)
	fraction := min(1, elapsed.Seconds()/m.timeout.Seconds())

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR BACKENDS"),
		SubtitleStyle.Render("Browsing "+discovery.ServiceType+" on the local network..."),
		"",
		m.ProgressBar.ViewAs(fraction),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))),
	)
	return lipgloss.Place(width-4, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m PickerModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n\n")
	}

	if len(m.List.Items()) == 0 {
		b.WriteString("  ")
		b.WriteString(WarningTextStyle.Render("⚠ No backends found on your network"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Start one with 'rangectl serve --advertise'\n")
		b.WriteString("    • Check that mDNS is not blocked by a firewall\n")
		b.WriteString("    • Press 'm' to enter an address by hand\n")
		return b.String()
	}

	b.WriteString(m.List.View())
	return b.String()
}

func (m PickerModel) renderManualEntry() string {
	var b strings.Builder
	b.WriteString(SubtitleStyle.Render("Enter backend address"))
	b.WriteString("\n\n  Address: ")
	b.WriteString(m.AddrInput.View())
	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(RenderError(m.Err.Error()))
	}
	b.WriteString("\n")
	return b.String()
}
