package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// RenderGauge renders "label  [bar]  readout" on one line. percent is the
// arc position of the control, 0 to 100.
func RenderGauge(label, readout string, percent int, width int) string {
	barWidth := min(max(clampWidth(width)-40, 20), 50)
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	p := min(max(percent, 0), 100)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		HeaderParamKeyStyle.Render(fmt.Sprintf("%-16s", label)),
		bar.ViewAs(float64(p)/100),
		"  ",
		HeaderParamValueStyle.Render(readout),
	)
}
