package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/action"
	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/rangectl"
)

// dialKeyMap defines key bindings for the dial screen
type dialKeyMap struct {
	Toggle    key.Binding
	Cancel    key.Binding
	Increment key.Binding
	Decrement key.Binding
	Max       key.Binding
	Min       key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dialKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Increment, k.Decrement, k.Cancel, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dialKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Cancel},
		{k.Increment, k.Decrement, k.Max, k.Min},
		{k.Help, k.Quit},
	}
}

func newDialKeyMap() dialKeyMap {
	return dialKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "open/commit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Increment: key.NewBinding(
			key.WithKeys("up", "+", "k"),
			key.WithHelp("↑/+", "step up"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("down", "-", "j"),
			key.WithHelp("↓/-", "step down"),
		),
		Max: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "max"),
		),
		Min: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "min"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DialConfig configures a dial screen.
type DialConfig struct {
	Title   string
	Options rangectl.Options

	// Submitter receives committed values. Nil discards them.
	Submitter action.Submitter
	Timeout   time.Duration

	// States, when set, feeds backend state into the control.
	States <-chan rangectl.Value
	// Initial is the committed value shown before any state arrives.
	Initial rangectl.Value
}

// DialModel is the Bubble Tea model hosting one range control.
type DialModel struct {
	Title string

	control *rangectl.Control
	view    *view
	fx      *effects
	states  <-chan rangectl.Value

	// Last submission outcome for the status line
	lastResult string
	lastErr    error
	offline    bool

	Width  int
	Height int
	Gauge  progress.Model
	Help   help.Model
	Keys   dialKeyMap
}

// NewDialModel creates the dial screen and its control.
func NewDialModel(cfg DialConfig) (DialModel, error) {
	fx := &effects{}
	v := &view{}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = action.DefaultTimeout
	}
	sink := &cmdSink{fx: fx, submitter: cfg.Submitter, timeout: timeout}

	control, err := rangectl.New(cfg.Options, v, sink, &cmdScheduler{fx: fx})
	if err != nil {
		return DialModel{}, err
	}
	control.SetValue(cfg.Initial)

	gauge := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	gauge.Width = DefaultGaugeWidth

	title := cfg.Title
	if title == "" {
		title = cfg.Options.Name
	}

	return DialModel{
		Title:   title,
		control: control,
		view:    v,
		fx:      fx,
		states:  cfg.States,
		Gauge:   gauge,
		Help:    help.New(),
		Keys:    newDialKeyMap(),
	}, nil
}

// Control returns the hosted control.
func (m DialModel) Control() *rangectl.Control { return m.control }

// Init starts listening for backend state.
func (m DialModel) Init() tea.Cmd {
	return tea.Batch(m.fx.drain(), waitForState(m.states))
}

// Update handles messages and updates the model
func (m DialModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, m.Keys.Quit) {
			m.control.Shutdown()
			return m, tea.Quit
		}
		if key.Matches(msg, m.Keys.Help) {
			m.Help.ShowAll = !m.Help.ShowAll
			break
		}
		if g, ok := m.gestureFor(msg); ok {
			m.control.Dispatch(g)
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.control.Dispatch(rangectl.GestureToggle)
		}

	case fireMsg:
		msg.timer.fire()

	case actionResultMsg:
		m.lastErr = msg.err
		m.lastResult = m.control.Options().Format(msg.action.Value)

	case stateMsg:
		if !msg.ok {
			m.offline = true
			logging.Warn("Backend state feed closed", zap.String("control", m.Title))
			break
		}
		// Adjusting wins over backend echoes; the commit resyncs anyway.
		if !m.control.IsOpen() {
			m.control.SetValue(msg.value)
		}
		cmd = waitForState(m.states)
	}

	return m, tea.Batch(cmd, m.fx.drain())
}

// gestureFor maps a key to a gesture: the focused-control keys first, then
// the toggle, cancel and alias bindings.
func (m DialModel) gestureFor(msg tea.KeyMsg) (rangectl.Gesture, bool) {
	if g, ok := rangectl.GestureForKey(msg.String()); ok {
		return g, true
	}
	switch {
	case key.Matches(msg, m.Keys.Toggle):
		return rangectl.GestureToggle, true
	case key.Matches(msg, m.Keys.Cancel):
		return rangectl.GestureCancel, true
	case key.Matches(msg, m.Keys.Increment):
		return rangectl.GestureIncrement, true
	case key.Matches(msg, m.Keys.Decrement):
		return rangectl.GestureDecrement, true
	case key.Matches(msg, m.Keys.Max):
		return rangectl.GestureJumpToMax, true
	case key.Matches(msg, m.Keys.Min):
		return rangectl.GestureJumpToMin, true
	}
	return 0, false
}

// View renders the dial screen
func (m DialModel) View() string {
	return RenderApplicationContainer(m.Title, m.renderContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DialModel) renderContent() string {
	width := m.Width
	if width < MinTerminalWidth {
		width = DefaultWidth
	}

	opts := m.control.Options()
	mode := SubtitleStyle.Render("closed")
	if m.view.open {
		mode = WarningTextStyle.Render("adjusting")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		renderRing(m.shownArc(), m.view.status, m.view.icon, m.view.open),
		"",
		m.Gauge.ViewAs(float64(m.shownArc())/100),
		SubtitleStyle.Render(fmt.Sprintf("%s … %s", opts.Format(opts.Min), opts.Format(opts.Max))),
		"",
		m.renderButtons(),
		mode,
		m.renderStatusLine(),
	)

	return lipgloss.Place(width-4, 0, lipgloss.Center, lipgloss.Top, content)
}

// shownArc is the arc the ring and gauge draw. While open that is the
// animated arc; while closed it follows the committed value, which Cancel and
// backend state can change without moving the arc.
func (m DialModel) shownArc() int {
	if m.view.open {
		return m.view.arc
	}
	f, ok := m.control.Committed().Float()
	if !ok {
		return 0
	}
	return int(math.Round(m.control.Options().Percent(f)))
}

// renderButtons shows the directional buttons while the control is open.
func (m DialModel) renderButtons() string {
	if !m.view.open {
		return ""
	}
	labels := make([]string, 0, len(m.view.buttons))
	for _, b := range m.view.buttons {
		labels = append(labels, ButtonStyle.Render(buttonLabel(b)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, labels...)
}

func buttonLabel(b rangectl.Button) string {
	switch b.Gesture {
	case rangectl.GestureJumpToMax:
		return "⤒ max"
	case rangectl.GestureIncrement:
		return "▲"
	case rangectl.GestureDecrement:
		return "▼"
	case rangectl.GestureJumpToMin:
		return "⤓ min"
	default:
		return strings.TrimPrefix(b.Name, "range_")
	}
}

func (m DialModel) renderStatusLine() string {
	switch {
	case m.offline:
		return RenderError("backend disconnected")
	case m.lastErr != nil:
		return RenderError(fmt.Sprintf("sending %s failed: %s", m.lastResult, action.ShortMessage(m.lastErr)))
	case m.lastResult != "":
		return RenderSuccess("sent " + m.lastResult)
	default:
		return ""
	}
}
