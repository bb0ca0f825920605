package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/tui/styles"
)

// Bar is one labelled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	// Text replaces the formatted value at the end of the bar when set.
	Text string
}

var barBlocks = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// BarLength returns the bar for value scaled against max over width cells,
// using eighth blocks for the remainder.
func BarLength(value, max float64, width int) string {
	if max <= 0 || value <= 0 || width <= 0 {
		return ""
	}
	eighths := int(value / max * float64(width*8))
	if eighths > width*8 {
		eighths = width * 8
	}
	full := eighths / 8
	bar := strings.Repeat("█", full)
	if rem := eighths % 8; rem > 0 {
		bar += string(barBlocks[rem])
	}
	if bar == "" {
		bar = string(barBlocks[1])
	}
	return bar
}

// RenderBars draws bars one per line within width columns.
func RenderBars(bars []Bar, width int) string {
	if len(bars) == 0 {
		return lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).Render("no data")
	}

	labelW := 0
	textW := 0
	var max float64
	texts := make([]string, len(bars))
	for i, b := range bars {
		if n := lipgloss.Width(b.Label); n > labelW {
			labelW = n
		}
		texts[i] = b.Text
		if texts[i] == "" {
			texts[i] = trimFloat(b.Value)
		}
		if n := len(texts[i]); n > textW {
			textW = n
		}
		if b.Value > max {
			max = b.Value
		}
	}
	if labelW > width/3 {
		labelW = width / 3
	}
	barW := width - labelW - textW - 3
	if barW < 4 {
		barW = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(styles.Text).Width(labelW)
	barStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	valStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var sb strings.Builder
	for i, b := range bars {
		sb.WriteString(labelStyle.Render(Truncate(b.Label, labelW)))
		sb.WriteString(" ")
		sb.WriteString(barStyle.Render(BarLength(b.Value, max, barW)))
		sb.WriteString(" ")
		sb.WriteString(valStyle.Render(texts[i]))
		if i < len(bars)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// Truncate shortens s to max display runes, ending with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
