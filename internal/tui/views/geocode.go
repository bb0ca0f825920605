package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/model"
	"github.com/rendis/dishtap/internal/tui/styles"
)

const lookupTimeout = 15 * time.Second

// Lookup is the geocoder used by the geocode view.
type Lookup interface {
	Forward(ctx context.Context, place string) (model.Location, error)
	Reverse(ctx context.Context, loc model.Location) (string, error)
}

type GeocodeModel struct {
	input   textinput.Model
	lookup  Lookup
	busy    bool
	query   string
	loc     model.Location
	address string
	err     error
}

type geocodeResultMsg struct {
	Query   string
	Loc     model.Location
	Address string
	Err     error
}

func NewGeocodeModel(lookup Lookup) GeocodeModel {
	in := newInput("place name, or lat,lng for an address", "", 60)
	in.Focus()
	return GeocodeModel{input: in, lookup: lookup}
}

func (m GeocodeModel) Init() tea.Cmd {
	return textinput.Blink
}

// parseLatLng accepts "lat,lng" with optional spaces.
func parseLatLng(s string) (model.Location, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Location{}, false
	}
	loc := model.Location{Lat: strings.TrimSpace(parts[0]), Lng: strings.TrimSpace(parts[1])}
	if _, err := strconv.ParseFloat(loc.Lat, 64); err != nil {
		return model.Location{}, false
	}
	if _, err := strconv.ParseFloat(loc.Lng, 64); err != nil {
		return model.Location{}, false
	}
	return loc, true
}

func (m GeocodeModel) resolve(q string) tea.Cmd {
	lookup := m.lookup
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		if loc, ok := parseLatLng(q); ok {
			addr, err := lookup.Reverse(ctx, loc)
			return geocodeResultMsg{Query: q, Loc: loc, Address: addr, Err: err}
		}
		loc, err := lookup.Forward(ctx, q)
		return geocodeResultMsg{Query: q, Loc: loc, Err: err}
	}
}

func (m GeocodeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy || m.lookup == nil {
				return m, nil
			}
			m.busy = true
			m.err = nil
			return m, m.resolve(q)
		}
	case geocodeResultMsg:
		m.busy = false
		m.query = msg.Query
		m.loc = msg.Loc
		m.address = msg.Address
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m GeocodeModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Geocode"))
	b.WriteString("\n\n")
	b.WriteString(styles.Label.Render("Lookup:") + " " + m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(styles.Hint.Render("looking up..."))
	case m.err != nil:
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.query != "":
		b.WriteString(styles.Label.Render("Latitude:") + " " + styles.Value.Render(m.loc.Lat) + "\n")
		b.WriteString(styles.Label.Render("Longitude:") + " " + styles.Value.Render(m.loc.Lng) + "\n")
		if m.address != "" {
			b.WriteString(styles.Label.Render("Address:") + " " + styles.Value.Render(m.address) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
			Render(fmt.Sprintf("dishtap scan -lat %s -lng %s -queries ...", m.loc.Lat, m.loc.Lng)))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.StatusBar.Render("enter look up • esc back"))
	return styles.Border.Render(b.String())
}
