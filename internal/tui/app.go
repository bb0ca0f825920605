package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/tui/views"
)

type viewID int

const (
	viewHome viewID = iota
	viewScan
	viewProgress
	viewDashboard
	viewFilePicker
	viewRecent
	viewGeocode
)

// Options wires the TUI to configured collaborators.
type Options struct {
	Version  string
	Scan     views.ScanEnv
	Defaults views.ScanDefaults
	Lookup   views.Lookup
	// Workbook opens straight into the dashboard when set.
	Workbook string
}

// App is the root bubbletea model.
type App struct {
	opts        Options
	currentView viewID
	width       int
	height      int
	home        views.HomeModel
	scan        views.ScanModel
	progress    views.ProgressModel
	dashboard   views.DashboardModel
	filePicker  views.FilePickerModel
	recent      views.RecentModel
	geocode     views.GeocodeModel
}

func NewApp(opts Options) App {
	return App{
		opts:        opts,
		currentView: viewHome,
		home:        views.NewHomeModel(opts.Version),
	}
}

func (a App) Init() tea.Cmd {
	if a.opts.Workbook != "" {
		path := a.opts.Workbook
		return func() tea.Msg { return views.NavigateToDashboard{Path: path} }
	}
	return a.home.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && a.currentView != viewProgress {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case views.NavigateToHome:
		a.currentView = viewHome
		return a, nil
	case views.NavigateToScan:
		a.currentView = viewScan
		a.scan = views.NewScanModel(a.opts.Defaults)
		return a, a.scan.Init()
	case views.NavigateToLoad:
		a.currentView = viewFilePicker
		a.filePicker = views.NewFilePickerModel(a.opts.Defaults.OutputDir)
		return a, a.filePicker.Init()
	case views.NavigateToGeocode:
		a.currentView = viewGeocode
		a.geocode = views.NewGeocodeModel(a.opts.Lookup)
		return a, a.geocode.Init()
	case views.StartScanMsg:
		a.currentView = viewProgress
		a.progress = views.NewProgressModel(msg, a.opts.Scan)
		return a, tea.Batch(a.progress.Init(), a.sizeCmd())
	case views.NavigateToDashboard:
		a.currentView = viewDashboard
		a.dashboard = views.NewDashboardModel(msg.Path)
		SaveRecent(msg.Path)
		return a, tea.Batch(a.dashboard.Init(), a.sizeCmd())
	case views.NavigateToRecent:
		a.currentView = viewRecent
		var entries []views.RecentEntry
		for _, e := range LoadRecent() {
			entries = append(entries, views.RecentEntry{Path: e.Path, OpenedAt: e.OpenedAt})
		}
		a.recent = views.NewRecentModel(entries)
		return a, a.recent.Init()
	}

	var m tea.Model
	var cmd tea.Cmd
	switch a.currentView {
	case viewHome:
		m, cmd = a.home.Update(msg)
		a.home = m.(views.HomeModel)
	case viewScan:
		m, cmd = a.scan.Update(msg)
		a.scan = m.(views.ScanModel)
	case viewProgress:
		m, cmd = a.progress.Update(msg)
		a.progress = m.(views.ProgressModel)
	case viewDashboard:
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(views.DashboardModel)
	case viewFilePicker:
		m, cmd = a.filePicker.Update(msg)
		a.filePicker = m.(views.FilePickerModel)
	case viewRecent:
		m, cmd = a.recent.Update(msg)
		a.recent = m.(views.RecentModel)
	case viewGeocode:
		m, cmd = a.geocode.Update(msg)
		a.geocode = m.(views.GeocodeModel)
	}
	return a, cmd
}

func (a App) View() string {
	var content string
	switch a.currentView {
	case viewHome:
		content = a.home.View()
	case viewScan:
		content = a.scan.View()
	case viewProgress:
		content = a.progress.View()
	case viewDashboard:
		content = a.dashboard.View()
	case viewFilePicker:
		content = a.filePicker.View()
	case viewRecent:
		content = a.recent.View()
	case viewGeocode:
		content = a.geocode.View()
	}

	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// sizeCmd sends a WindowSizeMsg so newly created views get the current terminal size.
func (a App) sizeCmd() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

// Run starts the TUI.
func Run(opts Options) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
