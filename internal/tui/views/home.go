package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/tui/styles"
)

type menuItem struct {
	key   string
	label string
	desc  string
	msg   tea.Msg // nil quits
}

type HomeModel struct {
	items   []menuItem
	cursor  int
	version string
}

func NewHomeModel(version string) HomeModel {
	return HomeModel{
		version: version,
		items: []menuItem{
			{key: "n", label: "New Scan", desc: "Search dishes across locations", msg: NavigateToScan{}},
			{key: "o", label: "Open Workbook", desc: "Open an existing .xlsx result", msg: NavigateToLoad{}},
			{key: "r", label: "Recent Workbooks", desc: "Reopen a recent result", msg: NavigateToRecent{}},
			{key: "g", label: "Geocode", desc: "Look up coordinates for a place", msg: NavigateToGeocode{}},
			{key: "q", label: "Quit", desc: "Exit dishtap"},
		},
	}
}

func (m HomeModel) Init() tea.Cmd {
	return nil
}

func (m HomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		return m, m.selectItem()
	default:
		for i, item := range m.items {
			if item.key == key.String() {
				m.cursor = i
				return m, m.selectItem()
			}
		}
	}
	return m, nil
}

func (m HomeModel) selectItem() tea.Cmd {
	target := m.items[m.cursor].msg
	if target == nil {
		return tea.Quit
	}
	return func() tea.Msg { return target }
}

func (m HomeModel) View() string {
	var b strings.Builder

	logo := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("  dishtap")
	version := lipgloss.NewStyle().Foreground(styles.Muted).Render(" " + m.version)
	tagline := lipgloss.NewStyle().Foreground(styles.Secondary).Italic(true).
		Render("  Dish search scanner")

	b.WriteString(logo + version + "\n")
	b.WriteString(tagline + "\n\n")

	for i, item := range m.items {
		cursor := "  "
		style := styles.InactiveItem
		if i == m.cursor {
			cursor = "> "
			style = styles.ActiveItem
		}

		key := lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true).
			Render(fmt.Sprintf("[%s]", item.key))
		desc := lipgloss.NewStyle().Foreground(styles.Muted).Render(" - " + item.desc)

		b.WriteString(fmt.Sprintf("%s%s %s%s\n", cursor, key, style.Render(item.label), desc))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("↑↓ navigate • enter select • q quit"))

	return styles.Border.Render(b.String())
}

// Navigation messages
type (
	NavigateToHome    struct{}
	NavigateToScan    struct{}
	NavigateToLoad    struct{}
	NavigateToRecent  struct{}
	NavigateToGeocode struct{}
)

// NavigateToDashboard opens a workbook in the dashboard.
type NavigateToDashboard struct {
	Path string
}
