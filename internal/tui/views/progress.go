package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/dishtap/internal/engine/scraper"
	"github.com/rendis/dishtap/internal/engine/session"
	"github.com/rendis/dishtap/internal/engine/upload"
	"github.com/rendis/dishtap/internal/tui/components"
	"github.com/rendis/dishtap/internal/tui/styles"
)

const recentQueries = 6

// ScanEnv carries the configured collaborators for scans started from the
// TUI.
type ScanEnv struct {
	Client      scraper.ClientOptions
	FilePrefix  string
	LogLevel    string
	LogFormat   string
	MetricsFile string
	Geocoder    session.Geocoder
	// NewUploader may return a nil uploader when upload is disabled.
	NewUploader func(ctx context.Context) (upload.Uploader, error)
}

// sharedState holds data shared between the scan goroutine and the TUI.
// Lives behind a pointer so it survives bubbletea's value copies.
type sharedState struct {
	mu         sync.Mutex
	stats      *scraper.Stats
	cancel     context.CancelFunc
	phase      string
	queries    int
	pairsTotal int
	paths      session.Paths
	results    []scraper.QueryResult
}

// ProgressModel runs a scan and shows its live counters.
type ProgressModel struct {
	req         StartScanMsg
	env         ScanEnv
	progress    progress.Model
	startTime   time.Time
	done        bool
	confirmQuit bool
	err         error
	result      *session.Result
	width       int
	shared      *sharedState
}

type progressTickMsg time.Time

type scanCompleteMsg struct {
	Result *session.Result
	Err    error
}

func NewProgressModel(req StartScanMsg, env ScanEnv) ProgressModel {
	return ProgressModel{
		req:       req,
		env:       env,
		progress:  progress.New(progress.WithGradient("#FC8019", "#60B246"), progress.WithWidth(50)),
		startTime: time.Now(),
		shared:    &sharedState{phase: "resolving targets"},
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.startScan(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m ProgressModel) startScan() tea.Cmd {
	shared := m.shared
	req := m.req
	env := m.env

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		shared.mu.Lock()
		shared.cancel = cancel
		shared.mu.Unlock()

		queries, err := req.Targets.ResolveQueries()
		if err != nil {
			return scanCompleteMsg{Err: err}
		}
		locations, err := req.Targets.ResolveLocations(ctx, env.Geocoder)
		if err != nil {
			return scanCompleteMsg{Err: err}
		}

		var uploader upload.Uploader
		if env.NewUploader != nil {
			if uploader, err = env.NewUploader(ctx); err != nil {
				return scanCompleteMsg{Err: err}
			}
		}

		stats := &scraper.Stats{}
		shared.mu.Lock()
		shared.stats = stats
		shared.phase = "scanning"
		shared.queries = len(queries)
		shared.pairsTotal = len(queries) * len(locations)
		shared.mu.Unlock()

		res, err := session.Run(ctx, session.Request{
			Queries:     queries,
			Locations:   locations,
			OutputDir:   req.OutputDir,
			FilePrefix:  env.FilePrefix,
			Concurrency: req.Concurrency,
			Client:      env.Client,
			LogLevel:    env.LogLevel,
			LogFormat:   env.LogFormat,
			MetricsFile: env.MetricsFile,
		}, session.Deps{Uploader: uploader}, session.Options{
			Stats:          stats,
			SuppressStderr: true,
			OnPaths: func(p session.Paths) {
				shared.mu.Lock()
				shared.paths = p
				shared.mu.Unlock()
			},
			OnQuery: func(r scraper.QueryResult) {
				shared.mu.Lock()
				shared.results = append(shared.results, r)
				shared.mu.Unlock()
			},
		})
		return scanCompleteMsg{Result: res, Err: err}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shared.stop()
			return m, tea.Quit
		case "esc":
			if m.done {
				return m, func() tea.Msg { return NavigateToHome{} }
			}
			if m.confirmQuit {
				// Second esc stops the scan; sheets written so far are saved.
				m.shared.stop()
				m.confirmQuit = false
				return m, nil
			}
			m.confirmQuit = true
			return m, nil
		case "enter":
			if m.done && m.result != nil && m.result.Saved {
				path := m.result.Paths.Workbook
				return m, func() tea.Msg { return NavigateToDashboard{Path: path} }
			}
			m.confirmQuit = false
			return m, nil
		}
		m.confirmQuit = false
	case progressTickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case scanCompleteMsg:
		m.done = true
		m.err = msg.Err
		m.result = msg.Result
		return m, nil
	}

	pModel, cmd := m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) View() string {
	var b strings.Builder
	snap := m.shared.snapshot()

	title := "Scanning"
	if snap.queries > 0 {
		title = fmt.Sprintf("Scanning %d queries × %d locations", snap.queries, snap.pairsTotal/snap.queries)
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n\n")

	statsBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Muted).
		Padding(0, 1).
		Width(32).
		Render(m.renderStats(snap))
	queriesBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Muted).
		Padding(0, 1).
		Width(44).
		Render(m.renderQueries(snap.results))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, statsBox, " ", queriesBox))
	b.WriteString("\n\n")

	var pct float64
	if snap.stats != nil && snap.pairsTotal > 0 {
		pct = float64(snap.stats.PairsDone.Load()) / float64(snap.pairsTotal)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	switch {
	case m.done:
		b.WriteString(m.renderOutcome())
		b.WriteString("\n\n")
		hint := "esc home"
		if m.result != nil && m.result.Saved {
			hint = "enter open dashboard • esc home"
		}
		b.WriteString(styles.StatusBar.Render(hint))
	case m.confirmQuit:
		b.WriteString(styles.ErrorText.Render("Press ESC again to stop the scan; finished sheets are kept"))
		b.WriteString("\n")
		b.WriteString(styles.StatusBar.Render("esc confirm stop • any key continue"))
	default:
		b.WriteString(styles.Hint.Render(snap.phase))
		b.WriteString("\n")
		if snap.paths.Workbook != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render("Workbook: " + snap.paths.Workbook))
			b.WriteString("\n")
		}
		b.WriteString(styles.StatusBar.Render("esc stop • ctrl+c quit"))
	}

	return b.String()
}

func (m ProgressModel) renderOutcome() string {
	var b strings.Builder
	interrupted := errors.Is(m.err, context.Canceled)
	if m.err != nil && !interrupted {
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	res := m.result
	if res == nil {
		return b.String()
	}

	muted := lipgloss.NewStyle().Foreground(styles.Muted)
	switch {
	case res.Saved && interrupted:
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).Bold(true).
			Render(fmt.Sprintf("Stopped. %d sheets saved", len(res.Sheets))))
	case res.Saved:
		b.WriteString(styles.SuccessText.Render(fmt.Sprintf("Complete! %d sheets written", len(res.Sheets))))
	default:
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).Bold(true).
			Render("No data found for any query, workbook not saved"))
	}
	b.WriteString("\n")
	if res.Saved {
		b.WriteString(muted.Render("Workbook: " + res.Paths.Workbook))
		b.WriteString("\n")
	}
	if res.UploadID != "" {
		b.WriteString(muted.Render("Uploaded: " + res.UploadID))
		b.WriteString("\n")
	}
	b.WriteString(muted.Render("Log: " + res.Paths.Log))
	return b.String()
}

func (m ProgressModel) renderStats(snap stateSnapshot) string {
	var sb strings.Builder
	elapsed := time.Since(m.startTime).Truncate(time.Second)

	var queriesDone, pairsDone, found, kept, dups, sheets, empty, errCount int64
	if s := snap.stats; s != nil {
		queriesDone = s.QueriesDone.Load()
		pairsDone = s.PairsDone.Load()
		found = s.DishesFound.Load()
		kept = s.DishesKept.Load()
		dups = s.Duplicates.Load()
		sheets = s.SheetsWritten.Load()
		empty = s.EmptyQueries.Load()
		errCount = s.Errors.Load()
	}

	statLabel := lipgloss.NewStyle().Foreground(styles.Muted).Width(13)
	statVal := lipgloss.NewStyle().Foreground(styles.Text).Bold(true)
	row := func(label string, value string, style lipgloss.Style) {
		sb.WriteString(statLabel.Render(label))
		sb.WriteString(style.Render(value))
		sb.WriteString("\n")
	}

	row("Queries:", fmt.Sprintf("%d/%d", queriesDone, snap.queries), statVal)
	row("Fetches:", fmt.Sprintf("%d/%d", pairsDone, snap.pairsTotal), statVal)
	row("Found:", fmt.Sprintf("%d", found), statVal)
	row("Kept:", fmt.Sprintf("%d", kept), statVal)
	row("Duplicates:", fmt.Sprintf("%d", dups), statVal)
	row("Sheets:", fmt.Sprintf("%d", sheets), statVal)
	if empty > 0 {
		row("Empty:", fmt.Sprintf("%d", empty), lipgloss.NewStyle().Foreground(styles.Warning).Bold(true))
	}
	errStyle := statVal
	if errCount > 0 {
		errStyle = lipgloss.NewStyle().Foreground(styles.Error).Bold(true)
	}
	row("Errors:", fmt.Sprintf("%d", errCount), errStyle)
	row("Elapsed:", elapsed.String(), statVal)

	if pairsDone > 0 && snap.pairsTotal > 0 && !m.done {
		rate := float64(pairsDone) / elapsed.Seconds()
		remaining := float64(int64(snap.pairsTotal)-pairsDone) / rate
		eta := time.Duration(remaining * float64(time.Second)).Truncate(time.Second)
		row("ETA:", "~"+eta.String(), statVal)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (m ProgressModel) renderQueries(results []scraper.QueryResult) string {
	if len(results) == 0 {
		return styles.Hint.Render("waiting for the first query...")
	}
	if len(results) > recentQueries {
		results = results[len(results)-recentQueries:]
	}
	ok := lipgloss.NewStyle().Foreground(styles.Success)
	empty := lipgloss.NewStyle().Foreground(styles.Warning)

	var sb strings.Builder
	for i, r := range results {
		name := components.Truncate(r.Query, 26)
		if r.Sheet == "" {
			sb.WriteString(empty.Render(fmt.Sprintf("– %-26s no data", name)))
		} else {
			sb.WriteString(ok.Render(fmt.Sprintf("✓ %-26s %d rows", name, r.Dishes)))
		}
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

type stateSnapshot struct {
	stats      *scraper.Stats
	phase      string
	queries    int
	pairsTotal int
	paths      session.Paths
	results    []scraper.QueryResult
}

func (s *sharedState) snapshot() stateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateSnapshot{
		stats:      s.stats,
		phase:      s.phase,
		queries:    s.queries,
		pairsTotal: s.pairsTotal,
		paths:      s.paths,
		results:    append([]scraper.QueryResult(nil), s.results...),
	}
}

func (s *sharedState) stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
