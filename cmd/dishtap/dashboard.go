package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rendis/dishtap/internal/config"
	"github.com/rendis/dishtap/internal/tui"
	"github.com/rendis/dishtap/internal/tui/views"
)

func runDashboard(args []string) error {
	var configPath, workbook string

	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Config file (default: dishtap.yaml lookup)")
	fs.StringVar(&workbook, "workbook", "", "Workbook to open in the dashboard")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dishtap dashboard [flags] [workbook.xlsx]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if workbook == "" && fs.NArg() > 0 {
		workbook = fs.Arg(0)
	}
	if workbook != "" {
		if _, err := os.Stat(workbook); err != nil {
			return fmt.Errorf("opening workbook: %w", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return tui.Run(tuiOptions(cfg, workbook))
}

func tuiOptions(cfg *config.Config, workbook string) tui.Options {
	g := newGeocoder(cfg)
	return tui.Options{
		Version: version,
		Scan: views.ScanEnv{
			Client:      clientOptions(cfg),
			FilePrefix:  cfg.Output.FilePrefix,
			LogLevel:    cfg.Log.Level,
			LogFormat:   cfg.Log.Format,
			MetricsFile: cfg.Metrics.File,
			Geocoder:    g,
			NewUploader: newUploader(cfg),
		},
		Defaults: views.ScanDefaults{
			Concurrency: cfg.Scraper.Concurrency,
			OutputDir:   cfg.Output.Dir,
		},
		Lookup:   g,
		Workbook: workbook,
	}
}
