// Package session runs one complete scan: it lays out the output files,
// drives the scraper, saves the workbook and hands it to the uploader.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rendis/dishtap/internal/engine/metrics"
	"github.com/rendis/dishtap/internal/engine/scraper"
	"github.com/rendis/dishtap/internal/engine/sheet"
	"github.com/rendis/dishtap/internal/engine/storage"
	"github.com/rendis/dishtap/internal/engine/upload"
	"github.com/rendis/dishtap/internal/logging"
	"github.com/rendis/dishtap/internal/model"
)

const (
	DefaultFilePrefix = "SwiggyData"
	timestampLayout   = "2006-01-02_15-04-05"
)

// Paths are the files one session writes, sharing a timestamped base name.
type Paths struct {
	Workbook string
	DB       string
	Log      string
	DebugDir string
}

func NewPaths(dir, prefix string, t time.Time) Paths {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	base := filepath.Join(dir, prefix+"-"+t.Format(timestampLayout))
	return Paths{
		Workbook: base + ".xlsx",
		DB:       base + ".db",
		Log:      base + ".log",
		DebugDir: base + "_debug",
	}
}

// Request describes a scan.
type Request struct {
	Queries     []string
	Locations   []model.Location
	OutputDir   string
	FilePrefix  string
	Concurrency int
	Debug       bool
	Client      scraper.ClientOptions
	LogLevel    string
	LogFormat   string
	// StderrLevel echoes log entries at or above this level to stderr.
	StderrLevel string
	MetricsFile string
}

// Deps lets callers replace collaborators. Nil fields are built from the
// request.
type Deps struct {
	Fetcher  scraper.Fetcher
	Uploader upload.Uploader
	Logger   *zap.Logger
	Now      func() time.Time
}

// Options are passed through to the scraper for live progress.
type Options struct {
	Stats          *scraper.Stats
	SuppressStderr bool
	OnQuery        func(scraper.QueryResult)
	// OnPaths is called once the output paths are known, before scraping.
	OnPaths func(Paths)
}

type Result struct {
	Paths    Paths
	RunID    string
	Stats    *scraper.Stats
	Sheets   []string
	Saved    bool
	UploadID string
	Duration time.Duration
}

func (r *Request) validate() error {
	if len(r.Queries) == 0 {
		return fmt.Errorf("no queries to search")
	}
	if len(r.Locations) == 0 {
		return fmt.Errorf("no locations to search from")
	}
	if r.Concurrency < 1 {
		r.Concurrency = 1
	}
	if r.OutputDir == "" {
		r.OutputDir = "."
	}
	return nil
}

// Run executes the scan. The workbook is saved only when at least one sheet
// was written, and uploaded only after a successful save. On cancellation
// the sheets written so far are still saved and ctx.Err() is returned.
func Run(ctx context.Context, req Request, deps Deps, opts Options) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	started := deps.Now()

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	paths := NewPaths(req.OutputDir, req.FilePrefix, started)
	res := &Result{Paths: paths}
	if opts.OnPaths != nil {
		opts.OnPaths(paths)
	}

	logger := deps.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewFile(paths.Log, req.LogLevel, req.LogFormat)
		if err != nil {
			return nil, fmt.Errorf("opening log: %w", err)
		}
		defer logger.Sync()
		if req.StderrLevel != "" {
			logger = logging.WithStderr(logger, req.StderrLevel)
		}
	}
	logger.Info("session start",
		zap.Strings("queries", req.Queries),
		zap.Int("locations", len(req.Locations)),
		zap.Int("concurrency", req.Concurrency),
		zap.String("workbook", paths.Workbook))

	store, err := storage.NewStore(paths.DB)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	runID, err := store.StartRun(paths.Workbook, len(req.Queries), len(req.Locations))
	if err != nil {
		return nil, err
	}
	res.RunID = runID

	wb, err := sheet.Create(paths.Workbook)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if req.Debug {
		if err := os.MkdirAll(paths.DebugDir, 0755); err != nil {
			return nil, fmt.Errorf("creating debug dir: %w", err)
		}
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = scraper.NewClient(req.Client)
	}

	rec := metrics.NewRecorder()
	params := model.ScanParams{
		Queries:     req.Queries,
		Locations:   req.Locations,
		OutputPath:  paths.Workbook,
		DBPath:      paths.DB,
		Concurrency: req.Concurrency,
		RPS:         req.Client.RPS,
		Debug:       req.Debug,
		DebugDir:    paths.DebugDir,
	}

	stats, runErr := scraper.Run(ctx, params, fetcher, wb, logger, &scraper.RunOptions{
		RunID:          runID,
		Store:          store,
		Stats:          opts.Stats,
		Metrics:        rec,
		SuppressStderr: opts.SuppressStderr,
		OnQuery:        opts.OnQuery,
	})
	res.Stats = stats
	res.Sheets = wb.Sheets()
	canceled := errors.Is(runErr, context.Canceled)
	if runErr != nil && !canceled {
		return res, fmt.Errorf("scraping: %w", runErr)
	}

	if wb.SheetCount() > 0 {
		if err := wb.Save(); err != nil {
			return res, err
		}
		res.Saved = true
		logger.Info("workbook saved", zap.String("path", paths.Workbook), zap.Int("sheets", wb.SheetCount()))
	} else {
		logger.Warn("no data found for any query, workbook not saved")
	}
	if err := wb.Close(); err != nil {
		logger.Warn("closing workbook", zap.Error(err))
	}

	if err := store.FinishRun(runID, int(stats.SheetsWritten.Load()), int(stats.DishesKept.Load()), int(stats.Errors.Load())); err != nil {
		logger.Error("finishing run", zap.Error(err))
	}

	rec.Finish(started)
	if err := rec.WriteFile(req.MetricsFile); err != nil {
		logger.Warn("writing metrics", zap.String("path", req.MetricsFile), zap.Error(err))
	}
	res.Duration = deps.Now().Sub(started)

	if canceled {
		logger.Warn("session interrupted", zap.Int("sheets_saved", wb.SheetCount()))
		return res, runErr
	}

	if deps.Uploader != nil {
		if !res.Saved {
			logger.Info("nothing to upload")
		} else {
			id, err := deps.Uploader.Upload(ctx, paths.Workbook)
			if err != nil {
				logger.Error("upload failed", zap.String("backend", deps.Uploader.Name()), zap.Error(err))
				return res, fmt.Errorf("uploading workbook: %w", err)
			}
			res.UploadID = id
			logger.Info("workbook uploaded", zap.String("backend", deps.Uploader.Name()), zap.String("id", id))
		}
	}

	logger.Info("session done",
		zap.Int64("dishes_found", stats.DishesFound.Load()),
		zap.Int64("dishes_kept", stats.DishesKept.Load()),
		zap.Int64("sheets", stats.SheetsWritten.Load()),
		zap.Int64("errors", stats.Errors.Load()),
		zap.Duration("duration", res.Duration))
	return res, nil
}
