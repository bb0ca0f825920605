package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/engine/session"
	"github.com/rendis/dishtap/internal/tui/styles"
)

type locationMode int

const (
	modeFile locationMode = iota
	modePlace
	modeCoords
)

var modeNames = []string{"Locations file", "Place", "Coordinates"}

// Field indices. fieldMode is a virtual field, not a textinput.
const (
	fieldMode = iota
	fieldQueries
	fieldQueriesFile
	fieldLocationsFile
	fieldPlace
	fieldLat
	fieldLng
	fieldRadius
	fieldSpacing
	fieldConcurrency
	fieldOutput
	fieldCount
)

// ScanModel is the new-scan form.
type ScanModel struct {
	inputs  []textinput.Model
	mode    locationMode
	focused int
	err     string
}

// ScanDefaults prefill the form from configuration.
type ScanDefaults struct {
	Concurrency int
	OutputDir   string
}

func NewScanModel(d ScanDefaults) ScanModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldMode] = textinput.New()
	inputs[fieldQueries] = newInput("Chicken Momos, Paneer Tikka", "", 60)
	inputs[fieldQueriesFile] = newInput("optional: queries.xlsx", "", 50)
	inputs[fieldLocationsFile] = newInput("locations.xlsx (Latitude, Longitude)", "", 50)
	inputs[fieldPlace] = newInput("Balajinagar Community Hall, Kukatpally", "", 50)
	inputs[fieldLat] = newInput("17.4948", "", 15)
	inputs[fieldLng] = newInput("78.3996", "", 15)
	inputs[fieldRadius] = newInput("0", "", 8)
	inputs[fieldSpacing] = newInput(strconv.FormatFloat(session.DefaultSpacingKm, 'f', -1, 64), "", 8)
	inputs[fieldConcurrency] = newInput("1", itoaOrEmpty(d.Concurrency), 5)
	inputs[fieldOutput] = newInput("./output", d.OutputDir, 50)

	return ScanModel{inputs: inputs, mode: modeFile, focused: fieldMode}
}

func itoaOrEmpty(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func newInput(placeholder, value string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	if width > 0 {
		ti.Width = width
	}
	if value != "" {
		ti.SetValue(value)
	}
	return ti
}

func (m ScanModel) Init() tea.Cmd {
	return nil
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }
		case "down", "tab":
			m.err = ""
			return m, m.focusNext()
		case "up", "shift+tab":
			m.err = ""
			return m, m.focusPrev()
		case "enter":
			if cmd := m.submit(); cmd != nil {
				return m, cmd
			}
			return m, nil
		case "left":
			if m.focused == fieldMode && m.mode > modeFile {
				m.mode--
				return m, nil
			}
		case "right":
			if m.focused == fieldMode && m.mode < modeCoords {
				m.mode++
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.focused != fieldMode {
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	}
	return m, cmd
}

// visible reports whether field idx belongs to the current mode.
func (m ScanModel) visible(idx int) bool {
	switch idx {
	case fieldLocationsFile:
		return m.mode == modeFile
	case fieldPlace:
		return m.mode == modePlace
	case fieldLat, fieldLng:
		return m.mode == modeCoords
	case fieldRadius, fieldSpacing:
		return m.mode != modeFile
	}
	return true
}

func (m *ScanModel) focus(idx int) tea.Cmd {
	if m.focused != fieldMode {
		m.inputs[m.focused].Blur()
	}
	m.focused = idx
	if idx == fieldMode {
		return nil
	}
	m.inputs[idx].Focus()
	return textinput.Blink
}

func (m *ScanModel) focusNext() tea.Cmd {
	idx := m.focused
	for {
		idx = (idx + 1) % fieldCount
		if m.visible(idx) {
			return m.focus(idx)
		}
	}
}

func (m *ScanModel) focusPrev() tea.Cmd {
	idx := m.focused
	for {
		idx = (idx - 1 + fieldCount) % fieldCount
		if m.visible(idx) {
			return m.focus(idx)
		}
	}
}

func (m ScanModel) value(idx int) string {
	return strings.TrimSpace(m.inputs[idx].Value())
}

// Build validates the form and returns the scan to start.
func (m ScanModel) Build() (StartScanMsg, error) {
	t := session.Targets{
		Queries:     session.SplitList(m.value(fieldQueries)),
		QueriesFile: m.value(fieldQueriesFile),
	}
	if len(t.Queries) == 0 && t.QueriesFile == "" {
		return StartScanMsg{}, fmt.Errorf("enter queries or a queries file")
	}

	var err error
	switch m.mode {
	case modeFile:
		if t.LocationsFile = m.value(fieldLocationsFile); t.LocationsFile == "" {
			return StartScanMsg{}, fmt.Errorf("locations file is required")
		}
	case modePlace:
		if t.Place = m.value(fieldPlace); t.Place == "" {
			return StartScanMsg{}, fmt.Errorf("place is required")
		}
	case modeCoords:
		t.Lat, t.Lng = m.value(fieldLat), m.value(fieldLng)
		if t.Lat == "" || t.Lng == "" {
			return StartScanMsg{}, fmt.Errorf("latitude and longitude are required")
		}
		if _, err := strconv.ParseFloat(t.Lat, 64); err != nil {
			return StartScanMsg{}, fmt.Errorf("latitude must be a number")
		}
		if _, err := strconv.ParseFloat(t.Lng, 64); err != nil {
			return StartScanMsg{}, fmt.Errorf("longitude must be a number")
		}
	}
	if m.mode != modeFile {
		if t.RadiusKm, err = session.ParseFloat("radius", m.value(fieldRadius)); err != nil {
			return StartScanMsg{}, err
		}
		if t.SpacingKm, err = session.ParseFloat("spacing", m.value(fieldSpacing)); err != nil {
			return StartScanMsg{}, err
		}
	}

	concurrency := 1
	if s := m.value(fieldConcurrency); s != "" {
		concurrency, err = strconv.Atoi(s)
		if err != nil || concurrency < 1 {
			return StartScanMsg{}, fmt.Errorf("concurrency must be a positive number")
		}
	}

	output := m.value(fieldOutput)
	if output == "" {
		return StartScanMsg{}, fmt.Errorf("output directory is required")
	}

	return StartScanMsg{Targets: t, Concurrency: concurrency, OutputDir: output}, nil
}

func (m *ScanModel) submit() tea.Cmd {
	msg, err := m.Build()
	if err != nil {
		m.err = err.Error()
		return nil
	}
	return func() tea.Msg { return msg }
}

func (m ScanModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("New Scan") + "\n\n")

	b.WriteString(m.renderField("Queries:", fieldQueries))
	b.WriteString(m.renderField("Queries file:", fieldQueriesFile))
	b.WriteString("\n")
	b.WriteString(m.renderMode())

	switch m.mode {
	case modeFile:
		b.WriteString(m.renderField("Locations:", fieldLocationsFile))
	case modePlace:
		b.WriteString(m.renderField("Place:", fieldPlace))
	case modeCoords:
		b.WriteString(m.renderField("Latitude:", fieldLat))
		b.WriteString(m.renderField("Longitude:", fieldLng))
	}
	if m.mode != modeFile {
		b.WriteString(m.renderField("Radius (km):", fieldRadius))
		b.WriteString(m.renderField("Spacing (km):", fieldSpacing))
		if m.focused == fieldRadius {
			b.WriteString(styles.Hint.Render("  0 searches the single point only") + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderField("Concurrency:", fieldConcurrency))
	if m.focused == fieldConcurrency {
		b.WriteString(styles.Hint.Render("  parallel fetches per query; results keep location order") + "\n")
	}
	b.WriteString(m.renderField("Output:", fieldOutput))

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorText.Render("  " + m.err))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.StatusBar.Render("enter start • tab next • ←→ location source • esc back"))

	return styles.Border.Render(b.String())
}

func (m ScanModel) renderMode() string {
	active := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	inactive := lipgloss.NewStyle().Foreground(styles.Muted)

	parts := make([]string, len(modeNames))
	for i, name := range modeNames {
		if locationMode(i) == m.mode {
			parts[i] = active.Render("< " + name + " >")
		} else {
			parts[i] = inactive.Render(name)
		}
	}
	line := styles.Label.Render("Search from:") + " " + strings.Join(parts, "  ")
	if m.focused == fieldMode {
		line += lipgloss.NewStyle().Foreground(styles.Secondary).Render(" ←→")
	}
	return line + "\n"
}

func (m ScanModel) renderField(label string, idx int) string {
	return fmt.Sprintf("%s %s\n", styles.Label.Render(label), m.inputs[idx].View())
}

// StartScanMsg starts a scan with resolved form values.
type StartScanMsg struct {
	Targets     session.Targets
	Concurrency int
	OutputDir   string
}
