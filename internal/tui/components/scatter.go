package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/tui/styles"
)

// XY is one plotted sample.
type XY struct {
	X, Y float64
}

// Scatter plots samples using Braille characters, 2x4 dots per cell.
type Scatter struct {
	width    int
	height   int
	points   []XY
	selected int // index into points, -1 if none
	XLabel   string
	YLabel   string

	minX, maxX float64
	minY, maxY float64
}

func NewScatter(width, height int) Scatter {
	return Scatter{width: width, height: height, selected: -1}
}

func (s *Scatter) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *Scatter) SetPoints(points []XY) {
	s.points = points
	s.selected = -1
	s.fit()
}

func (s *Scatter) SetSelected(idx int) {
	s.selected = idx
}

func (s *Scatter) fit() {
	if len(s.points) == 0 {
		s.minX, s.maxX, s.minY, s.maxY = 0, 0, 0, 0
		return
	}
	s.minX, s.maxX = s.points[0].X, s.points[0].X
	s.minY, s.maxY = s.points[0].Y, s.points[0].Y
	for _, p := range s.points {
		s.minX = math.Min(s.minX, p.X)
		s.maxX = math.Max(s.maxX, p.X)
		s.minY = math.Min(s.minY, p.Y)
		s.maxY = math.Max(s.maxY, p.Y)
	}
	// A single distinct value still needs a non-zero range.
	if s.maxX == s.minX {
		s.minX -= 1
		s.maxX += 1
	}
	if s.maxY == s.minY {
		s.minY -= 0.5
		s.maxY += 0.5
	}
}

// Dot positions inside one braille cell, as {row, col}, in bit order.
//
//	0 3
//	1 4
//	2 5
//	6 7
var brailleDots = [8][2]int{
	{0, 0}, {1, 0}, {2, 0}, {0, 1},
	{1, 1}, {2, 1}, {3, 0}, {3, 1},
}

// grid maps points to dot coordinates. The second grid only holds the
// selected point.
func (s Scatter) grid(dotW, dotH int) (all, sel [][]bool) {
	all = make([][]bool, dotH)
	sel = make([][]bool, dotH)
	for i := range all {
		all[i] = make([]bool, dotW)
		sel[i] = make([]bool, dotW)
	}
	xr := s.maxX - s.minX
	yr := s.maxY - s.minY
	for i, p := range s.points {
		x := int((p.X - s.minX) / xr * float64(dotW-1))
		y := int((s.maxY - p.Y) / yr * float64(dotH-1))
		if x < 0 || x >= dotW || y < 0 || y >= dotH {
			continue
		}
		all[y][x] = true
		if i == s.selected {
			sel[y][x] = true
		}
	}
	return all, sel
}

func (s Scatter) View() string {
	if s.width <= 0 || s.height <= 0 {
		return ""
	}
	if len(s.points) == 0 {
		return lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).Render("no data to plot")
	}

	axisW := 6
	cols := s.width - axisW
	if cols < 4 {
		cols = 4
	}
	rows := s.height - 1
	if rows < 2 {
		rows = 2
	}
	all, sel := s.grid(cols*2, rows*4)

	pointStyle := lipgloss.NewStyle().Foreground(styles.Secondary)
	selStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	axisStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		label := ""
		switch row {
		case 0:
			label = compact(s.maxY)
		case rows - 1:
			label = compact(s.minY)
		}
		sb.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", axisW-1, label)))

		for col := 0; col < cols; col++ {
			var val, selVal rune = 0x2800, 0x2800
			for bit, pos := range brailleDots {
				dy, dx := row*4+pos[0], col*2+pos[1]
				if all[dy][dx] {
					val |= 1 << bit
				}
				if sel[dy][dx] {
					selVal |= 1 << bit
				}
			}
			switch {
			case selVal != 0x2800:
				sb.WriteString(selStyle.Render(string(val)))
			case val != 0x2800:
				sb.WriteString(pointStyle.Render(string(val)))
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	lo, hi := compact(s.minX), compact(s.maxX)
	gap := cols - len(lo) - len(hi)
	if gap < 1 {
		gap = 1
	}
	footer := fmt.Sprintf("%*s %s%s%s", axisW-1, "", lo, strings.Repeat(" ", gap), hi)
	if s.XLabel != "" || s.YLabel != "" {
		footer += "   " + s.XLabel + " vs " + s.YLabel
	}
	sb.WriteString(axisStyle.Render(footer))
	return sb.String()
}

// compact formats an axis value in at most five characters.
func compact(v float64) string {
	switch {
	case math.Abs(v) >= 10000:
		return fmt.Sprintf("%.0fk", v/1000)
	case math.Abs(v) >= 100:
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
