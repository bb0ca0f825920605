package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rendis/dishtap/internal/engine/geo"
	"github.com/rendis/dishtap/internal/engine/sheet"
	"github.com/rendis/dishtap/internal/engine/storage"
	"github.com/rendis/dishtap/internal/model"
)

func runExport(args []string) error {
	var dbPath, runID, outputPath, format string
	var list bool

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to .db file (required)")
	fs.StringVar(&runID, "run", "", "Run id to export (default: latest)")
	fs.BoolVar(&list, "list", false, "List runs stored in the db and exit")
	fs.StringVar(&format, "format", "csv", "Export format: csv, xlsx or geojson")
	fs.StringVar(&outputPath, "output", "", "Output file path (default: same dir as db)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dishtap export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dishtap export -db ./SwiggyData-2026-10-17_10-30-00.db\n")
		fmt.Fprintf(os.Stderr, "  dishtap export -db data.db -format geojson -output dishes.geojson\n")
		fmt.Fprintf(os.Stderr, "  dishtap export -db data.db -list\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	format = strings.ToLower(format)
	if !list && format != "csv" && format != "xlsx" && format != "geojson" {
		return fmt.Errorf("unsupported format: %s (csv, xlsx or geojson)", format)
	}
	// NewStore would create an empty db for a missing path
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("opening db: %w", err)
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if list {
		runs, err := store.Runs()
		if err != nil {
			return err
		}
		printRuns(runs)
		if total, err := store.Count(); err == nil {
			fmt.Fprintf(os.Stderr, "%d dishes stored\n", total)
		}
		return nil
	}

	dishes, err := store.LoadDishes(runID)
	if err != nil {
		return fmt.Errorf("loading db: %w", err)
	}
	if len(dishes) == 0 {
		return fmt.Errorf("no dishes found in database")
	}

	if outputPath == "" {
		outputPath = defaultExportPath(dbPath, format)
	}
	if err := exportDishes(dishes, format, outputPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d dishes to %s\n", len(dishes), outputPath)
	return nil
}

func defaultExportPath(dbPath, format string) string {
	dir := filepath.Dir(dbPath)
	base := strings.TrimSuffix(filepath.Base(dbPath), ".db")
	if format == "xlsx" {
		// keep clear of the workbook the scan itself saved
		base += "-export"
	}
	return filepath.Join(dir, base+"."+format)
}

func exportDishes(dishes []model.Dish, format, path string) error {
	switch format {
	case "csv":
		return sheet.WriteCSVFile(path, dishes)
	case "xlsx":
		return exportWorkbook(dishes, path)
	case "geojson":
		data, err := geo.DishFeatures(dishes).MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding geojson: %w", err)
		}
		return os.WriteFile(path, data, 0644)
	}
	return fmt.Errorf("unsupported format: %s", format)
}

// exportWorkbook rebuilds one sheet per query, in the order queries first
// appear in the run.
func exportWorkbook(dishes []model.Dish, path string) error {
	wb, err := sheet.Create(path)
	if err != nil {
		return err
	}
	defer wb.Close()

	for _, g := range groupByQuery(dishes) {
		if _, err := wb.WriteSheet(g.query, g.dishes); err != nil {
			return err
		}
	}
	if err := wb.Save(); err != nil {
		return err
	}
	return wb.Close()
}

type queryGroup struct {
	query  string
	dishes []model.Dish
}

func groupByQuery(dishes []model.Dish) []queryGroup {
	index := make(map[string]int)
	var groups []queryGroup
	for _, d := range dishes {
		i, ok := index[d.Query]
		if !ok {
			i = len(groups)
			index[d.Query] = i
			groups = append(groups, queryGroup{query: d.Query})
		}
		groups[i].dishes = append(groups[i].dishes, d)
	}
	return groups
}

func printRuns(runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "No runs stored.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tQUERIES\tLOCATIONS\tSHEETS\tDISHES\tERRORS")
	for _, r := range runs {
		duration := "running"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), duration,
			r.Queries, r.Locations, r.SheetsWritten, r.DishesKept, r.Errors)
	}
	tw.Flush()
}
