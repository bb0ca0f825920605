package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/tui/styles"
)

type RecentEntry struct {
	Path     string
	OpenedAt time.Time
}

type RecentModel struct {
	entries []RecentEntry
	cursor  int
}

func NewRecentModel(entries []RecentEntry) RecentModel {
	return RecentModel{entries: entries}
}

func (m RecentModel) Init() tea.Cmd {
	return nil
}

func (m RecentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.entries) {
				return m, func() tea.Msg {
					return NavigateToDashboard{Path: m.entries[m.cursor].Path}
				}
			}
		case "d":
			m.entries = existing(m.entries)
			if m.cursor >= len(m.entries) {
				m.cursor = max(len(m.entries)-1, 0)
			}
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }
		}
	}
	return m, nil
}

func (m RecentModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Recent Workbooks"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("No recent workbooks"))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	for i, entry := range m.entries {
		cursor := "  "
		style := styles.InactiveItem
		if i == m.cursor {
			cursor = "> "
			style = styles.ActiveItem
		}

		name := filepath.Base(entry.Path)
		dir := filepath.Dir(entry.Path)

		nameStr := style.Render(name)
		if !fileExists(entry.Path) {
			nameStr = lipgloss.NewStyle().Foreground(styles.Error).Strikethrough(true).Render(name)
		}

		ago := timeAgo(entry.OpenedAt)
		dirStr := lipgloss.NewStyle().Foreground(styles.Muted).Render(
			fmt.Sprintf("  %s  %s", dir, ago))

		b.WriteString(fmt.Sprintf("%s%s\n%s\n", cursor, nameStr, dirStr))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("enter open • d forget missing • esc back"))

	return styles.Border.Render(b.String())
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// existing drops entries whose file is gone.
func existing(entries []RecentEntry) []RecentEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if fileExists(e.Path) {
			out = append(out, e)
		}
	}
	return out
}
