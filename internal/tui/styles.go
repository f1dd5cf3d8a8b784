package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/rangectl/internal/version"
)

// Application branding constants
const (
	AppName   = "RANGECTL"
	GitHubURL = "github.com/muurk/rangectl"
)

// Layout constants for responsive terminal width
const (
	MinTerminalWidth  = 48
	DefaultWidth      = 72
	DefaultHeight     = 24
	DefaultGaugeWidth = 30
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor   = lipgloss.Color("#FFFFFF")
	SubtleColor = lipgloss.Color("#626262")
	BorderColor = lipgloss.Color("#7D56F4")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SelectedMenuItemStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// Readout in the middle of the dial
	ReadoutStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// Readout while a value is pending
	PendingReadoutStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	LitCellStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	// Lit cells while open
	ActiveCellStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	DarkCellStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	ButtonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningTextStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)
)

// RenderError renders an error line
func RenderError(text string) string {
	return ErrorTextStyle.Render("✗ " + text)
}

// RenderSuccess renders a success line
func RenderSuccess(text string) string {
	return SuccessTextStyle.Render("✓ " + text)
}

// BuildHeaderContent creates header content with the app name, version and
// the screen title
func BuildHeaderContent(title string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + version.Version)

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(title)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps a screen in the shared frame: header,
// content and a footer with help text, filling the terminal.
func RenderApplicationContainer(title, content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = DefaultWidth
	}
	if terminalHeight <= 0 {
		terminalHeight = DefaultHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4). // Leave room for outer border
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent(title)),
		contentStyle.Render(content),
		footerStyle.Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}
