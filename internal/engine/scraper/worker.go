package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rendis/dishtap/internal/engine/aggregate"
	"github.com/rendis/dishtap/internal/engine/metrics"
	"github.com/rendis/dishtap/internal/engine/normalize"
	"github.com/rendis/dishtap/internal/model"
)

type Stats struct {
	QueriesTotal  int
	PairsTotal    int
	QueriesDone   atomic.Int64
	PairsDone     atomic.Int64
	DishesFound   atomic.Int64
	DishesKept    atomic.Int64
	Duplicates    atomic.Int64
	SheetsWritten atomic.Int64
	EmptyQueries  atomic.Int64
	Errors        atomic.Int64
}

// Fetcher performs one search request. *Client implements it.
type Fetcher interface {
	Search(ctx context.Context, loc model.Location, query string) ([]byte, error)
}

// SheetWriter receives one merged, non-empty result per query.
type SheetWriter interface {
	WriteSheet(query string, dishes []model.Dish) (string, error)
}

// DishStore keeps a copy of every written sheet.
type DishStore interface {
	InsertBatch(runID string, dishes []model.Dish) (int, error)
}

// QueryResult is reported after each query finishes.
type QueryResult struct {
	Query      string
	Sheet      string // empty when the query produced no rows
	Dishes     int
	Duplicates int
}

// RunOptions provides optional collaborators and callbacks for a run.
type RunOptions struct {
	RunID string
	Store DishStore
	// Stats allows passing an external Stats object for live progress tracking.
	// If nil, Run() creates its own.
	Stats   *Stats
	Metrics *metrics.Recorder
	// SuppressStderr disables the built-in stderr progress reporter.
	SuppressStderr bool
	OnQuery        func(QueryResult)
}

// Run executes the scraping pipeline: for each query, fetch every location,
// merge the batches and write one sheet. A failed (query, location) pair only
// loses that pair's rows; sheet write failures abort the run.
func Run(ctx context.Context, params model.ScanParams, fetcher Fetcher, writer SheetWriter, logger *zap.Logger, opts *RunOptions) (*Stats, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}
	stats.QueriesTotal = len(params.Queries)
	stats.PairsTotal = len(params.Queries) * len(params.Locations)

	p := &pipeline{
		params:  params,
		fetcher: fetcher,
		logger:  logger,
		stats:   stats,
		opts:    opts,
	}

	done := make(chan struct{})
	defer close(done)
	go p.report(done)

	for qi, query := range params.Queries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		qlog := logger.With(zap.String("query", query), zap.Int("query_index", qi))
		qlog.Info("searching", zap.Int("locations", len(params.Locations)))

		dishes := p.runQuery(ctx, qlog, qi, query)
		stats.QueriesDone.Add(1)

		if err := ctx.Err(); err != nil {
			qlog.Warn("query interrupted, not writing partial sheet")
			return stats, err
		}

		result := QueryResult{Query: query, Dishes: len(dishes)}

		if len(dishes) == 0 {
			stats.EmptyQueries.Add(1)
			qlog.Info("no data found, skipping sheet")
			if opts.OnQuery != nil {
				opts.OnQuery(result)
			}
			continue
		}

		sheet, err := writer.WriteSheet(query, dishes)
		if err != nil {
			return stats, fmt.Errorf("writing sheet for %q: %w", query, err)
		}
		stats.SheetsWritten.Add(1)
		stats.DishesKept.Add(int64(len(dishes)))
		opts.Metrics.SheetWritten(len(dishes))
		result.Sheet = sheet
		qlog.Info("sheet written", zap.String("sheet", sheet), zap.Int("rows", len(dishes)))

		if opts.Store != nil {
			if _, err := opts.Store.InsertBatch(opts.RunID, dishes); err != nil {
				stats.Errors.Add(1)
				qlog.Error("storing dishes", zap.Error(err))
			}
		}

		if opts.OnQuery != nil {
			opts.OnQuery(result)
		}
	}

	return stats, nil
}

type pipeline struct {
	params  model.ScanParams
	fetcher Fetcher
	logger  *zap.Logger
	stats   *Stats
	opts    *RunOptions
}

// runQuery visits every location for one query and merges the batches.
// With concurrency > 1 the fetches overlap, but batches are merged by visit
// index so the earliest location still wins a duplicate.
func (p *pipeline) runQuery(ctx context.Context, logger *zap.Logger, qi int, query string) []model.Dish {
	locations := p.params.Locations

	if p.params.Concurrency <= 1 {
		acc := aggregate.NewAccumulator()
		for li, loc := range locations {
			if ctx.Err() != nil {
				break
			}
			acc.Add(p.fetchPair(ctx, logger, qi, li, query, loc))
		}
		p.countDuplicates(acc.Duplicates())
		return acc.Dishes()
	}

	results := make(chan aggregate.Batch, len(locations))
	sem := make(chan struct{}, p.params.Concurrency)
	var wg sync.WaitGroup

	for li, loc := range locations {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(li int, loc model.Location) {
			defer wg.Done()
			defer func() { <-sem }()
			results <- aggregate.Batch{Visit: li, Dishes: p.fetchPair(ctx, logger, qi, li, query, loc)}
		}(li, loc)
	}
	wg.Wait()
	close(results)

	var batches []aggregate.Batch
	total := 0
	for b := range results {
		batches = append(batches, b)
		total += len(b.Dishes)
	}
	merged := aggregate.MergeOrdered(batches)
	p.countDuplicates(total - len(merged))
	return merged
}

func (p *pipeline) countDuplicates(n int) {
	p.stats.Duplicates.Add(int64(n))
	p.opts.Metrics.Duplicates(n)
}

func (p *pipeline) fetchPair(ctx context.Context, logger *zap.Logger, qi, li int, query string, loc model.Location) []model.Dish {
	defer p.stats.PairsDone.Add(1)

	plog := logger.With(zap.String("location", loc.String()))

	body, err := p.fetcher.Search(ctx, loc, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		p.stats.Errors.Add(1)
		var se *StatusError
		if errors.As(err, &se) {
			p.opts.Metrics.Fetch(se.StatusCode)
			plog.Warn("fetch failed", zap.Int("status", se.StatusCode))
		} else {
			p.opts.Metrics.Fetch(0)
			plog.Warn("fetch error", zap.Error(err))
		}
		return nil
	}
	p.opts.Metrics.Fetch(200)

	if p.params.Debug {
		p.dump(plog, qi, li, body)
	}

	raws, err := ParseSearchResponse(body)
	if err != nil {
		p.stats.Errors.Add(1)
		plog.Warn("malformed response", zap.Error(err))
		return nil
	}
	if len(raws) == 0 {
		plog.Info("no dishes in response")
		return nil
	}

	dishes := normalize.Dishes(raws, query, loc)
	p.stats.DishesFound.Add(int64(len(dishes)))
	p.opts.Metrics.Found(len(dishes))
	plog.Debug("dishes extracted", zap.Int("count", len(dishes)))
	return dishes
}

func (p *pipeline) dump(logger *zap.Logger, qi, li int, body []byte) {
	dir := p.params.DebugDir
	if dir == "" {
		dir = "."
	}
	name := filepath.Join(dir, fmt.Sprintf("debug_q%d_loc%d.json", qi, li))
	if err := os.WriteFile(name, body, 0644); err != nil {
		logger.Warn("writing debug dump", zap.Error(err))
	}
}

// report prints a progress line to stderr and a log line every 10s.
func (p *pipeline) report(done <-chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(2 * time.Second)
	logTicker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	defer logTicker.Stop()

	s := p.stats
	for {
		select {
		case <-ticker.C:
			if p.opts.SuppressStderr {
				continue
			}
			fmt.Fprintf(os.Stderr, "\r[%d/%d queries] %d/%d fetches | %d dishes | %d sheets | %d errors | %s",
				s.QueriesDone.Load(), s.QueriesTotal,
				s.PairsDone.Load(), s.PairsTotal,
				s.DishesFound.Load(), s.SheetsWritten.Load(),
				s.Errors.Load(), time.Since(start).Truncate(time.Second))
		case <-logTicker.C:
			p.logger.Info("progress",
				zap.Int64("queries_done", s.QueriesDone.Load()),
				zap.Int("queries_total", s.QueriesTotal),
				zap.Int64("fetches_done", s.PairsDone.Load()),
				zap.Int64("dishes_found", s.DishesFound.Load()),
				zap.Int64("sheets", s.SheetsWritten.Load()),
				zap.Int64("errors", s.Errors.Load()),
				zap.Duration("elapsed", time.Since(start).Truncate(time.Second)))
		case <-done:
			if !p.opts.SuppressStderr {
				fmt.Fprintf(os.Stderr, "\r[%d/%d queries] %d/%d fetches | %d dishes | %d sheets | %d errors | %s\n",
					s.QueriesDone.Load(), s.QueriesTotal,
					s.PairsDone.Load(), s.PairsTotal,
					s.DishesFound.Load(), s.SheetsWritten.Load(),
					s.Errors.Load(), time.Since(start).Truncate(time.Second))
			}
			return
		}
	}
}
