package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		var run func([]string) error
		switch os.Args[1] {
		case "scan":
			run = runScan
		case "export":
			run = runExport
		case "geocode":
			run = runGeocode
		case "dashboard":
			run = runDashboard
		case "version":
			fmt.Println("dishtap " + version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// No subcommand → launch TUI
	if err := runDashboard(nil); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `dishtap - food delivery dish search scanner

Usage:
  dishtap                   Launch interactive TUI
  dishtap scan [flags]      Run headless scan, one sheet per query
  dishtap export [flags]    Export a run from its .db to csv, xlsx or geojson
  dishtap geocode [flags]   Look up coordinates for a place, or an address for coordinates
  dishtap dashboard [file]  Open the TUI, optionally on a workbook
  dishtap version           Show version

Run 'dishtap <command> -h' for flags.
`)
}
