package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/rangectl/internal/rangectl"
)

// Ring geometry. Terminal cells are about twice as tall as wide, so the
// horizontal radius is doubled to look round.
const (
	ringCells   = 24
	ringRadiusX = 10
	ringRadiusY = 5
	ringWidth   = 2*ringRadiusX + 1
	ringHeight  = 2*ringRadiusY + 1
)

// view is the rangectl.Presenter of the dial screen. It only records what
// the control tells it; rendering happens in View.
type view struct {
	buttons []rangectl.Button
	status  string
	icon    string
	arc     int
	open    bool
}

var _ rangectl.Presenter = (*view)(nil)

func (v *view) AddIconButton(b rangectl.Button) { v.buttons = append(v.buttons, b) }
func (v *view) WriteStatus(text string)         { v.status = text }
func (v *view) DisplayIcon(name string)         { v.icon = name }
func (v *view) DrawArc(percent int)             { v.arc = percent }
func (v *view) Opened()                         { v.open = true }
func (v *view) Closed()                         { v.open = false }

// litCells reports, for each ring cell clockwise from 12 o'clock, whether
// the arc covers it.
func litCells(percent int) []bool {
	sweep := rangectl.ArcDegrees(percent)
	lit := make([]bool, ringCells)
	for i := range lit {
		lit[i] = float64(i)*360/ringCells < sweep
	}
	return lit
}

type cell struct {
	ch    rune
	style *lipgloss.Style
}

// renderRing draws the ring with the readout and icon in the middle.
func renderRing(percent int, readout, icon string, open bool) string {
	grid := make([][]cell, ringHeight)
	for y := range grid {
		grid[y] = make([]cell, ringWidth)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' '}
		}
	}

	litStyle := LitCellStyle
	if open {
		litStyle = ActiveCellStyle
	}

	for i, on := range litCells(percent) {
		theta := float64(i) * 2 * math.Pi / ringCells
		x := ringRadiusX + int(math.Round(ringRadiusX*math.Sin(theta)))
		y := ringRadiusY - int(math.Round(ringRadiusY*math.Cos(theta)))

		// Cells that land on the same spot stay lit if any of them is.
		if grid[y][x].ch == '●' {
			continue
		}
		if on {
			grid[y][x] = cell{ch: '●', style: &litStyle}
		} else {
			grid[y][x] = cell{ch: '·', style: &DarkCellStyle}
		}
	}

	readoutStyle := ReadoutStyle
	if open {
		readoutStyle = PendingReadoutStyle
	}
	placeText(grid[ringRadiusY], readout, &readoutStyle)
	placeText(grid[ringRadiusY+1], icon, &SubtitleStyle)

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		writeRow(&b, row)
	}
	return b.String()
}

// placeText centres text in row, leaving the outer ring column free.
func placeText(row []cell, text string, style *lipgloss.Style) {
	runes := []rune(text)
	if len(runes) > len(row)-4 {
		runes = runes[:len(row)-4]
	}
	start := (len(row) - len(runes)) / 2
	for i, r := range runes {
		row[start+i] = cell{ch: r, style: style}
	}
}

// writeRow styles runs of cells sharing a style together.
func writeRow(b *strings.Builder, row []cell) {
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for j < len(row) && row[j].style == row[i].style {
			run.WriteRune(row[j].ch)
			j++
		}
		if row[i].style == nil {
			b.WriteString(run.String())
		} else {
			b.WriteString(row[i].style.Render(run.String()))
		}
		i = j
	}
}
