package views

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/dishtap/internal/engine/insight"
	"github.com/rendis/dishtap/internal/engine/sheet"
	"github.com/rendis/dishtap/internal/model"
	"github.com/rendis/dishtap/internal/tui/components"
	"github.com/rendis/dishtap/internal/tui/styles"
)

type focusArea int

const (
	focusTable focusArea = iota
	focusFilter
	focusDetails
	focusChart
)

type chartMode int

const (
	chartTopRated chartMode = iota
	chartLowestRated
	chartPrices
	chartCuisines
	chartRestaurants
	chartDiscounts
	chartLocalities
	chartScatter
	chartModes
)

var chartTitles = [chartModes]string{
	"Top rated",
	"Lowest rated",
	"Price distribution",
	"Cuisines",
	"Restaurants",
	"Discounts",
	"Mean price by locality",
	"Price vs rating",
}

type sortMode int

const (
	sortSheet sortMode = iota
	sortRating
	sortPrice
	sortModes
)

var sortNames = [sortModes]string{"sheet order", "rating", "price"}

const (
	chartRows   = 10
	priceBins   = 20
	barChartMax = 10
)

// DashboardModel shows one workbook: a tab per sheet, a filterable dish
// table, the selected dish and a chart over the visible rows.
type DashboardModel struct {
	path     string
	sheets   []sheet.SheetData
	tab      int
	filtered []model.Dish
	table    table.Model
	filter   textinput.Model
	focus    focusArea
	chart    chartMode
	sort     sortMode
	scatter  components.Scatter
	selected int
	width    int
	height   int
	err      error
	loaded   bool
	message  string

	detailScroll int
}

type workbookLoadedMsg struct {
	Sheets []sheet.SheetData
	Err    error
}

func NewDashboardModel(path string) DashboardModel {
	filter := textinput.New()
	filter.Placeholder = "Type to filter..."
	filter.CharLimit = 50

	return DashboardModel{
		path:     path,
		filter:   filter,
		selected: -1,
		scatter:  components.NewScatter(40, 10),
	}
}

func (m DashboardModel) Init() tea.Cmd {
	path := m.path
	return func() tea.Msg {
		sheets, err := sheet.ReadWorkbook(path)
		return workbookLoadedMsg{Sheets: sheets, Err: err}
	}
}

func (m DashboardModel) current() []model.Dish {
	if m.tab < 0 || m.tab >= len(m.sheets) {
		return nil
	}
	return m.sheets[m.tab].Dishes
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refresh()
		return m, nil

	case workbookLoadedMsg:
		m.loaded = true
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.sheets = msg.Sheets
		m.tab = 0
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusTable:
			switch key {
			case "esc", "q":
				return m, func() tea.Msg { return NavigateToHome{} }
			case "/", "tab":
				m.focus = focusFilter
				m.filter.Focus()
				return m, textinput.Blink
			case "]", "L":
				m.switchTab(1)
				return m, nil
			case "[", "H":
				m.switchTab(-1)
				return m, nil
			case "c":
				m.chart = (m.chart + 1) % chartModes
				return m, nil
			case "C":
				m.chart = (m.chart + chartModes - 1) % chartModes
				return m, nil
			case "s":
				m.sort = (m.sort + 1) % sortModes
				m.refresh()
				return m, nil
			case "1":
				m.focus = focusDetails
				m.table.SetStyles(m.tableStyles(false))
				return m, nil
			case "2":
				m.focus = focusChart
				m.table.SetStyles(m.tableStyles(false))
				return m, nil
			case "e":
				m.exportCSV()
				return m, nil
			}

		case focusFilter:
			switch key {
			case "esc", "enter", "tab":
				m.focus = focusTable
				m.filter.Blur()
				return m, nil
			}

		case focusDetails, focusChart:
			switch key {
			case "esc":
				m.focus = focusTable
				m.table.SetStyles(m.tableStyles(true))
				return m, nil
			case "up", "k":
				if m.focus == focusDetails && m.detailScroll > 0 {
					m.detailScroll--
				}
				return m, nil
			case "down", "j":
				if m.focus == focusDetails {
					m.detailScroll++
				}
				return m, nil
			case "left", "h":
				if m.focus == focusChart {
					m.chart = (m.chart + chartModes - 1) % chartModes
				}
				return m, nil
			case "right", "l":
				if m.focus == focusChart {
					m.chart = (m.chart + 1) % chartModes
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusTable:
		m.table, cmd = m.table.Update(msg)
		if cursor := m.table.Cursor(); cursor != m.selected && cursor < len(m.filtered) {
			m.selected = cursor
			m.detailScroll = 0
			m.scatter.SetSelected(scatterIndex(m.filtered, cursor))
		}
	case focusFilter:
		m.filter, cmd = m.filter.Update(msg)
		m.refresh()
	}
	return m, cmd
}

func (m *DashboardModel) switchTab(delta int) {
	if len(m.sheets) == 0 {
		return
	}
	m.tab = (m.tab + delta + len(m.sheets)) % len(m.sheets)
	m.message = ""
	m.refresh()
}

// refresh recomputes the visible rows and everything derived from them.
func (m *DashboardModel) refresh() {
	m.filtered = sortDishes(filterDishes(m.current(), m.filter.Value()), m.sort)
	m.buildTable()

	points := make([]components.XY, 0, len(m.filtered))
	for _, d := range m.filtered {
		if r := d.RatingValue(); r > 0 {
			points = append(points, components.XY{X: d.Price, Y: r})
		}
	}
	m.scatter.SetPoints(points)
	m.scatter.XLabel = "price"
	m.scatter.YLabel = "rating"

	m.selected = -1
	m.detailScroll = 0
	if len(m.filtered) > 0 {
		m.selected = 0
		m.scatter.SetSelected(scatterIndex(m.filtered, 0))
	}
}

// scatterIndex maps a row to its point index; unrated rows are not plotted.
func scatterIndex(dishes []model.Dish, row int) int {
	if row < 0 || row >= len(dishes) || dishes[row].RatingValue() <= 0 {
		return -1
	}
	idx := 0
	for _, d := range dishes[:row] {
		if d.RatingValue() > 0 {
			idx++
		}
	}
	return idx
}

// normalize removes accents and lowercases text for matching.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, _ := transform.String(t, strings.ToLower(s))
	return result
}

// filterDishes keeps dishes matching every word of query, ignoring case and
// accents.
func filterDishes(dishes []model.Dish, query string) []model.Dish {
	words := strings.Fields(normalize(strings.TrimSpace(query)))
	if len(words) == 0 {
		return dishes
	}
	var out []model.Dish
	for _, d := range dishes {
		haystack := normalize(strings.Join([]string{
			d.DishName, d.RestaurantName, d.Cuisine, d.Category,
			d.Locality, d.AreaName, d.Description, d.DiscountHeader,
		}, " "))
		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, d)
		}
	}
	return out
}

// sortDishes returns a sorted copy. Rating sorts best first with unrated
// rows last; price sorts cheapest first.
func sortDishes(dishes []model.Dish, mode sortMode) []model.Dish {
	if mode == sortSheet {
		return dishes
	}
	out := append([]model.Dish(nil), dishes...)
	sort.SliceStable(out, func(i, j int) bool {
		switch mode {
		case sortRating:
			return out[i].RatingValue() > out[j].RatingValue()
		default:
			return out[i].Price < out[j].Price
		}
	})
	return out
}

// chartBars computes the bar chart for mode over dishes. The scatter mode
// has no bars.
func chartBars(mode chartMode, dishes []model.Dish) []components.Bar {
	var bars []components.Bar
	switch mode {
	case chartTopRated, chartLowestRated:
		ranked := insight.TopRated(dishes, barChartMax)
		if mode == chartLowestRated {
			ranked = insight.LowestRated(dishes, barChartMax)
		}
		for _, d := range ranked {
			bars = append(bars, components.Bar{
				Label: d.DishName + " · " + d.RestaurantName,
				Value: d.RatingValue(),
				Text:  d.Rating,
			})
		}
	case chartPrices:
		for _, bk := range insight.PriceHistogram(dishes, priceBins) {
			bars = append(bars, components.Bar{
				Label: fmt.Sprintf("₹%.0f–%.0f", bk.Lo, bk.Hi),
				Value: float64(bk.N),
			})
		}
	case chartCuisines, chartRestaurants, chartDiscounts:
		key := insight.Cuisines
		switch mode {
		case chartRestaurants:
			key = insight.Restaurants
		case chartDiscounts:
			key = insight.Discounts
		}
		counts := insight.ValueCounts(dishes, key)
		if len(counts) > barChartMax {
			counts = counts[:barChartMax]
		}
		for _, c := range counts {
			bars = append(bars, components.Bar{Label: c.Label, Value: float64(c.N)})
		}
	case chartLocalities:
		stats := insight.PricesBy(dishes, insight.Localities)
		sort.SliceStable(stats, func(i, j int) bool { return stats[i].Mean > stats[j].Mean })
		if len(stats) > barChartMax {
			stats = stats[:barChartMax]
		}
		for _, s := range stats {
			bars = append(bars, components.Bar{
				Label: s.Group,
				Value: s.Mean,
				Text:  fmt.Sprintf("₹%.0f (₹%.0f–%.0f)", s.Mean, s.Min, s.Max),
			})
		}
	}
	return bars
}

func (m *DashboardModel) buildTable() {
	dishW, restW, cuisineW, locW := 28, 22, 18, 14
	ratingW, priceW := 6, 8
	if m.width > 120 {
		extra := m.width - 120
		dishW += extra * 3 / 10
		restW += extra * 3 / 10
		cuisineW += extra * 2 / 10
		locW += extra * 2 / 10
	}

	columns := []table.Column{
		{Title: "Dish", Width: dishW},
		{Title: "Restaurant", Width: restW},
		{Title: "Rating", Width: ratingW},
		{Title: "Price", Width: priceW},
		{Title: "Cuisine", Width: cuisineW},
		{Title: "Locality", Width: locW},
	}

	rows := make([]table.Row, len(m.filtered))
	for i, d := range m.filtered {
		rows[i] = table.Row{
			components.Truncate(d.DishName, dishW),
			components.Truncate(d.RestaurantName, restW),
			d.Rating,
			fmt.Sprintf("₹%.0f", d.Price),
			components.Truncate(d.Cuisine, cuisineW),
			components.Truncate(d.Locality, locW),
		}
	}

	h := m.height/2 - 6
	if h < 5 {
		h = 5
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(h),
	)
	t.SetStyles(m.tableStyles(m.focus == focusTable || m.focus == focusFilter))
	m.table = t
}

func (m DashboardModel) tableStyles(focused bool) table.Styles {
	s := table.DefaultStyles()
	header := styles.Secondary
	if !focused {
		header = styles.Muted
	}
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(header)
	if focused {
		s.Selected = s.Selected.
			Foreground(styles.Highlight).
			Background(styles.Primary).
			Bold(true)
	} else {
		s.Selected = s.Selected.
			Foreground(styles.Text).
			Background(lipgloss.Color("#333333")).
			Bold(false)
	}
	return s
}

func (m DashboardModel) View() string {
	if m.err != nil {
		return styles.ErrorText.Render(fmt.Sprintf("Error loading workbook: %v", m.err)) +
			"\n" + styles.StatusBar.Render("esc back")
	}
	if !m.loaded {
		return styles.Hint.Render("Loading " + m.path + "...")
	}
	if len(m.sheets) == 0 {
		return styles.Hint.Render("Workbook has no sheets") + "\n" + styles.StatusBar.Render("esc back")
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Dashboard: " + filepath.Base(m.path)))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n")

	filterStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	if m.focus == focusFilter {
		filterStyle = lipgloss.NewStyle().Foreground(styles.Primary)
	}
	b.WriteString(filterStyle.Render("Filter: "))
	b.WriteString(m.filter.View())
	b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render("   sort: " + sortNames[m.sort]))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	width := m.width - 2
	if width < 60 {
		width = 60
	}
	panelH := m.height/2 - 6
	if panelH < chartRows {
		panelH = chartRows
	}
	detailW := width * 2 / 5
	chartW := width - detailW - 1

	details := styles.Panel(m.focus == focusDetails).
		Width(detailW - 2).
		Height(panelH).
		Render(m.renderDetails(detailW-4, panelH))
	chart := styles.Panel(m.focus == focusChart).
		Width(chartW - 2).
		Height(panelH).
		Render(m.renderChart(chartW-4, panelH))

	detailLabel := lipgloss.NewStyle().Bold(true).Foreground(m.labelColor(focusDetails)).Render("[1] Details")
	chartLabel := lipgloss.NewStyle().Bold(true).Foreground(m.labelColor(focusChart)).
		Render(fmt.Sprintf("[2] %s (%d/%d)", chartTitles[m.chart], m.chart+1, chartModes))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		detailLabel+"\n"+details, " ", chartLabel+"\n"+chart))
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Render(m.message))
		b.WriteString("\n")
	}

	var status string
	switch m.focus {
	case focusTable:
		status = "↑↓ rows • [ ] sheet • / filter • s sort • c chart • 1 details • 2 chart • e export csv • esc back"
	case focusFilter:
		status = "type to filter • esc done"
	case focusDetails:
		status = "↑↓ scroll • esc back to table"
	case focusChart:
		status = "←→ chart • esc back to table"
	}
	b.WriteString(styles.StatusBar.Render(status))
	return b.String()
}

func (m DashboardModel) labelColor(f focusArea) lipgloss.Color {
	if m.focus == f {
		return styles.Primary
	}
	return styles.Muted
}

func (m DashboardModel) renderTabs() string {
	tabs := make([]string, len(m.sheets))
	for i, s := range m.sheets {
		label := fmt.Sprintf("%s (%d)", s.Name, len(s.Dishes))
		if i == m.tab {
			tabs[i] = styles.ActiveTab.Render(label)
		} else {
			tabs[i] = styles.InactiveTab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m DashboardModel) renderSummary() string {
	s := insight.Summarize(m.filtered)
	parts := []string{
		fmt.Sprintf("%d dishes", s.Dishes),
		fmt.Sprintf("%d restaurants", s.Restaurants),
	}
	if s.Rated > 0 {
		parts = append(parts, fmt.Sprintf("avg rating %.2f (%d rated)", s.AvgRating, s.Rated))
	}
	if s.AvgPrice > 0 {
		parts = append(parts, fmt.Sprintf("avg price ₹%.0f", s.AvgPrice))
	}
	if r, ok := insight.PriceRatingCorrelation(m.filtered); ok {
		parts = append(parts, fmt.Sprintf("price/rating r=%.2f", r))
	}
	if n := len(m.current()); n != len(m.filtered) {
		parts = append(parts, fmt.Sprintf("showing %d of %d", len(m.filtered), n))
	}
	return lipgloss.NewStyle().Foreground(styles.Text).Render(strings.Join(parts, " · "))
}

// detailLines renders d as label/value lines, skipping N/A values.
func detailLines(d model.Dish) []string {
	lines := []string{d.DishName, d.RestaurantName, ""}
	add := func(label, value string) {
		if value != "" && value != model.NotAvailable {
			lines = append(lines, fmt.Sprintf("%-10s %s", label, value))
		}
	}
	rating := d.Rating
	if d.TotalRatings > 0 {
		rating += fmt.Sprintf(" (%d ratings)", d.TotalRatings)
	}
	add("Rating:", rating)
	add("Price:", fmt.Sprintf("₹%.2f", d.Price))
	add("For two:", d.CostForTwoMessage)
	add("Cuisine:", d.Cuisine)
	add("Category:", d.Category)
	add("Locality:", d.Locality)
	add("Area:", d.AreaName)
	add("Discount:", strings.TrimSpace(d.DiscountHeader+" "+d.DiscountSubHeader))
	add("Offer:", d.DiscountTag)
	if d.Description != "" && d.Description != model.NotAvailable {
		lines = append(lines, "", d.Description)
	}
	return lines
}

func (m DashboardModel) renderDetails(w, h int) string {
	if m.selected < 0 || m.selected >= len(m.filtered) {
		return styles.Hint.Render("Select a dish\nto view details")
	}
	lines := detailLines(m.filtered[m.selected])

	scroll := m.detailScroll
	if scroll > len(lines)-h {
		scroll = len(lines) - h
	}
	if scroll < 0 {
		scroll = 0
	}
	end := min(scroll+h, len(lines))

	var sb strings.Builder
	for i, line := range lines[scroll:end] {
		style := lipgloss.NewStyle().Foreground(styles.Text)
		switch scroll + i {
		case 0:
			style = style.Bold(true)
		case 1:
			style = lipgloss.NewStyle().Foreground(styles.Secondary)
		}
		sb.WriteString(style.Render(components.Truncate(line, w)))
		if i < end-scroll-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m DashboardModel) renderChart(w, h int) string {
	if m.chart == chartScatter {
		sc := m.scatter
		sc.SetSize(w, h)
		return sc.View()
	}
	return components.RenderBars(chartBars(m.chart, m.filtered), w)
}

// exportCSV writes the visible rows of the current sheet next to the
// workbook.
func (m *DashboardModel) exportCSV() {
	if len(m.sheets) == 0 {
		return
	}
	base := strings.TrimSuffix(m.path, filepath.Ext(m.path))
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, m.sheets[m.tab].Name)
	out := base + "-" + name + ".csv"

	if err := sheet.WriteCSVFile(out, m.filtered); err != nil {
		m.message = fmt.Sprintf("Export error: %v", err)
		return
	}
	m.message = fmt.Sprintf("Exported %d rows to %s", len(m.filtered), out)
}
