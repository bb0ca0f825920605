package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rendis/dishtap/internal/config"
	"github.com/rendis/dishtap/internal/model"
)

func runGeocode(args []string) error {
	var configPath, place, lat, lng string

	fs := flag.NewFlagSet("geocode", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Config file (default: dishtap.yaml lookup)")
	fs.StringVar(&place, "place", "", "Place or address to locate")
	fs.StringVar(&lat, "lat", "", "Latitude for reverse lookup")
	fs.StringVar(&lng, "lng", "", "Longitude for reverse lookup")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dishtap geocode [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dishtap geocode -place \"Balajinagar Community Hall, Kukatpally\"\n")
		fmt.Fprintf(os.Stderr, "  dishtap geocode -lat 17.4948 -lng 78.3996\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	place = strings.TrimSpace(place)
	reverse := lat != "" || lng != ""
	if place == "" && !reverse {
		return fmt.Errorf("either -place or -lat/-lng is required")
	}
	if place != "" && reverse {
		return fmt.Errorf("-place and -lat/-lng are mutually exclusive")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	g := newGeocoder(cfg)
	ctx := context.Background()

	if place != "" {
		loc, err := g.Forward(ctx, place)
		if err != nil {
			return err
		}
		fmt.Printf("Latitude,Longitude\n%s,%s\n", loc.Lat, loc.Lng)
		return nil
	}

	loc := model.Location{Lat: strings.TrimSpace(lat), Lng: strings.TrimSpace(lng)}
	if _, ok := loc.Point(); !ok {
		return fmt.Errorf("invalid coordinates %q", loc.String())
	}
	address, err := g.Reverse(ctx, loc)
	if err != nil {
		return err
	}
	fmt.Println(address)
	return nil
}
