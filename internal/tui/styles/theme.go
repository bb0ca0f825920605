package styles

import "github.com/charmbracelet/lipgloss"

var (
	Primary   = lipgloss.Color("#FC8019") // orange
	Secondary = lipgloss.Color("#60B246") // green
	Success   = lipgloss.Color("#22C55E")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")
	Muted     = lipgloss.Color("#7E808C")
	Text      = lipgloss.Color("#E5E7EB")
	Highlight = lipgloss.Color("#FFFFFF")

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary)

	Label = lipgloss.NewStyle().
		Foreground(Muted).
		Width(16)

	Value = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(Muted).
		Italic(true)

	ActiveItem = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	InactiveItem = lipgloss.NewStyle().
			Foreground(Muted)

	ActiveTab = lipgloss.NewStyle().
			Foreground(Highlight).
			Background(Primary).
			Bold(true).
			Padding(0, 1)

	InactiveTab = lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 1)

	StatusBar = lipgloss.NewStyle().
			Foreground(Muted).
			MarginTop(1)

	Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(1, 2)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	SuccessText = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)
)

// Panel is a bordered box whose border turns Primary when focused.
func Panel(focused bool) lipgloss.Style {
	c := Muted
	if focused {
		c = Primary
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 1)
}
