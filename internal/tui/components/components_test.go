package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarLength(t *testing.T) {
	assert.Equal(t, "████", BarLength(10, 10, 4))
	assert.Equal(t, "██", BarLength(5, 10, 4))
	assert.Equal(t, "▍", BarLength(1, 10, 4))
	assert.Equal(t, "████", BarLength(50, 10, 4), "clamped to width")
	assert.Equal(t, "", BarLength(0, 10, 4))
	assert.Equal(t, "", BarLength(3, 0, 4))
}

func TestRenderBars(t *testing.T) {
	out := RenderBars([]Bar{
		{Label: "North Indian", Value: 12},
		{Label: "Chinese", Value: 6},
		{Label: "Momos", Value: 2.5, Text: "₹2.5"},
	}, 60)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "North Indian")
	assert.Contains(t, lines[0], "12")
	assert.Contains(t, lines[2], "₹2.5")
	assert.Greater(t, strings.Count(lines[0], "█"), strings.Count(lines[1], "█"))

	assert.Contains(t, RenderBars(nil, 40), "no data")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Chicken…", Truncate("Chicken Momos", 8))
	assert.Equal(t, "Paneer ₹", Truncate("Paneer ₹", 8))
	assert.Equal(t, "", Truncate("x", 0))
}

func TestScatter(t *testing.T) {
	s := NewScatter(20, 5)
	assert.Contains(t, s.View(), "no data to plot")

	s.SetPoints([]XY{{X: 149, Y: 4.2}, {X: 299, Y: 4.6}, {X: 99, Y: 3.9}})
	s.SetSelected(1)
	out := s.View()

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, out, "4.6")
	assert.Contains(t, out, "299")

	dots := 0
	for _, r := range out {
		if r > 0x2800 && r <= 0x28FF {
			dots++
		}
	}
	assert.GreaterOrEqual(t, dots, 1)
}

func TestScatter_SingleValue(t *testing.T) {
	s := NewScatter(12, 3)
	s.SetPoints([]XY{{X: 100, Y: 4}})
	assert.NotPanics(t, func() { _ = s.View() })
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "149", compact(149))
	assert.Equal(t, "4.5", compact(4.5))
	assert.Equal(t, "12k", compact(12000))
}
