package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rendis/dishtap/internal/config"
	"github.com/rendis/dishtap/internal/engine/geo"
	"github.com/rendis/dishtap/internal/engine/session"
	"github.com/rendis/dishtap/internal/tui"
)

func runScan(args []string) error {
	var (
		configPath, queriesStr, outputDir, prefix string
		proxy, uploadBackend, metricsFile, level  string
		concurrency                               int
		rps                                       float64
		debug                                     bool
		targets                                   session.Targets
	)

	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Config file (default: dishtap.yaml lookup)")
	fs.StringVar(&queriesStr, "queries", "", "Comma-separated dish names")
	fs.StringVar(&targets.QueriesFile, "queries-file", "", "xlsx or csv file with one dish name per row")
	fs.StringVar(&targets.LocationsFile, "locations-file", "", "xlsx or csv file with Latitude,Longitude rows")
	fs.StringVar(&targets.Place, "place", "", "Place to geocode and search around")
	fs.StringVar(&targets.Lat, "lat", "", "Center latitude")
	fs.StringVar(&targets.Lng, "lng", "", "Center longitude")
	fs.StringVar(&targets.Region, "region", "", "Region to cover with a grid")
	fs.StringVar(&targets.Country, "country", "", "Country narrowing -region")
	fs.Float64Var(&targets.RadiusKm, "radius", 0, "Grid radius in km around -place or -lat/-lng (0: center only)")
	fs.Float64Var(&targets.SpacingKm, "spacing", session.DefaultSpacingKm, "Grid spacing in km")
	fs.StringVar(&targets.BoundaryFile, "boundary", "", "GeoJSON file restricting locations to its polygons")
	fs.StringVar(&targets.Zone, "zone", "", "Feature name inside -boundary (default: all)")
	fs.StringVar(&outputDir, "output", "", "Output directory")
	fs.StringVar(&prefix, "prefix", "", "Output file prefix")
	fs.IntVar(&concurrency, "concurrency", 1, "Queries searched in parallel")
	fs.Float64Var(&rps, "rps", 0, "Max requests per second (0: unlimited)")
	fs.StringVar(&proxy, "proxy", "", "HTTP/SOCKS5 proxy URL")
	fs.BoolVar(&debug, "debug", false, "Dump raw responses")
	fs.StringVar(&uploadBackend, "upload", "", "Upload backend: none, drive or s3")
	fs.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	fs.StringVar(&level, "log-level", "", "Log level: debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dishtap scan [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dishtap scan -queries \"Chicken Momos,Paneer Tikka\" -lat 17.4948 -lng 78.3996\n")
		fmt.Fprintf(os.Stderr, "  dishtap scan -queries-file dishes.xlsx -locations-file locations.xlsx -upload drive\n")
		fmt.Fprintf(os.Stderr, "  dishtap scan -queries Biryani -place Kukatpally -radius 3 -output ./runs\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	set := setFlags(fs)
	if set["output"] {
		cfg.Output.Dir = outputDir
	}
	if set["prefix"] {
		cfg.Output.FilePrefix = prefix
	}
	if set["concurrency"] {
		if concurrency < 1 {
			return fmt.Errorf("-concurrency must be at least 1")
		}
		cfg.Scraper.Concurrency = concurrency
	}
	if set["rps"] {
		cfg.Scraper.RPS = rps
	}
	if set["proxy"] {
		cfg.Scraper.ProxyURL = proxy
	}
	if set["upload"] {
		cfg.Upload.Backend = uploadBackend
	}
	if set["metrics-file"] {
		cfg.Metrics.File = metricsFile
	}
	if set["log-level"] {
		cfg.Log.Level = level
	}

	targets.Queries = session.SplitList(queriesStr)

	// Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nShutting down gracefully, saving finished sheets...")
			cancel()
		case <-ctx.Done():
		}
	}()

	queries, err := targets.ResolveQueries()
	if err != nil {
		return err
	}
	locations, err := targets.ResolveLocations(ctx, newGeocoder(cfg))
	if err != nil {
		return err
	}
	if sp, ok := geo.Summarize(locations); ok && sp.Points > 1 {
		fmt.Fprintf(os.Stderr, "Area: %d points around %.4f,%.4f (max %.1fkm, ~%.1fkm²)\n",
			sp.Points, sp.Center.Lat(), sp.Center.Lon(), sp.MaxDistanceKm, sp.AreaKm2)
	}
	fmt.Fprintf(os.Stderr, "Searching: %d queries x %d locations = %d requests (concurrency=%d)\n",
		len(queries), len(locations), len(queries)*len(locations), cfg.Scraper.Concurrency)

	uploader, err := newUploader(cfg)(ctx)
	if err != nil {
		return fmt.Errorf("configuring upload: %w", err)
	}

	res, runErr := session.Run(ctx, session.Request{
		Queries:     queries,
		Locations:   locations,
		OutputDir:   cfg.Output.Dir,
		FilePrefix:  cfg.Output.FilePrefix,
		Concurrency: cfg.Scraper.Concurrency,
		Debug:       debug,
		Client:      clientOptions(cfg),
		LogLevel:    cfg.Log.Level,
		LogFormat:   cfg.Log.Format,
		StderrLevel: "warn",
		MetricsFile: cfg.Metrics.File,
	}, session.Deps{Uploader: uploader}, session.Options{
		OnPaths: func(p session.Paths) {
			fmt.Fprintf(os.Stderr, "Log: %s\n", p.Log)
		},
	})
	if res != nil {
		printSummary(res, queries, len(locations))
		if res.Saved {
			tui.SaveRecent(res.Paths.Workbook)
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func printSummary(res *session.Result, queries []string, locations int) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  DishTap Complete\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Queries:    %s\n", strings.Join(queries, ", "))
	fmt.Fprintf(os.Stderr, "  Locations:  %d\n", locations)
	if s := res.Stats; s != nil {
		fmt.Fprintf(os.Stderr, "  Found:      %d\n", s.DishesFound.Load())
		fmt.Fprintf(os.Stderr, "  Kept:       %d (%d duplicates)\n", s.DishesKept.Load(), s.Duplicates.Load())
		fmt.Fprintf(os.Stderr, "  Sheets:     %d (%d empty queries)\n", s.SheetsWritten.Load(), s.EmptyQueries.Load())
		fmt.Fprintf(os.Stderr, "  Errors:     %d\n", s.Errors.Load())
	}
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", res.Duration.Truncate(time.Second))
	if res.Saved {
		fmt.Fprintf(os.Stderr, "  Workbook:   %s\n", res.Paths.Workbook)
	} else {
		fmt.Fprintf(os.Stderr, "  Workbook:   not saved (no data)\n")
	}
	fmt.Fprintf(os.Stderr, "  Database:   %s\n", res.Paths.DB)
	fmt.Fprintf(os.Stderr, "  Log:        %s\n", res.Paths.Log)
	if res.UploadID != "" {
		fmt.Fprintf(os.Stderr, "  Uploaded:   %s\n", res.UploadID)
	}
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
}
