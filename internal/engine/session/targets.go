package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/rendis/dishtap/internal/engine/geo"
	"github.com/rendis/dishtap/internal/engine/sheet"
	"github.com/rendis/dishtap/internal/model"
)

// DefaultSpacingKm separates generated grid points.
const DefaultSpacingKm = 2.0

// Geocoder is the subset of *geo.Geocoder used to resolve targets.
type Geocoder interface {
	Forward(ctx context.Context, place string) (model.Location, error)
	Region(ctx context.Context, region, country string) (orb.Bound, error)
}

// Targets describes where the queries and locations of a scan come from.
// Exactly one location source may be set among LocationsFile, Place,
// Lat/Lng and Region. A boundary file filters that source, or acts as the
// source itself when no other is given.
type Targets struct {
	Queries     []string // inline, searched before QueriesFile entries
	QueriesFile string

	LocationsFile string
	Place         string
	Lat, Lng      string
	Region        string
	Country       string
	RadiusKm      float64
	SpacingKm     float64

	BoundaryFile string
	Zone         string
}

// SplitList splits a comma-separated list, trimming and dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ResolveQueries returns the inline queries followed by the file ones.
func (t Targets) ResolveQueries() ([]string, error) {
	var queries []string
	for _, q := range t.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if t.QueriesFile != "" {
		fromFile, err := sheet.ReadQueries(t.QueriesFile)
		if err != nil {
			return nil, fmt.Errorf("reading queries: %w", err)
		}
		queries = append(queries, fromFile...)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries given")
	}
	return queries, nil
}

func (t Targets) hasCenter() bool {
	return strings.TrimSpace(t.Lat) != "" || strings.TrimSpace(t.Lng) != ""
}

func (t Targets) sourceCount() int {
	n := 0
	for _, set := range []bool{t.LocationsFile != "", t.Place != "", t.hasCenter(), t.Region != ""} {
		if set {
			n++
		}
	}
	return n
}

// ResolveLocations builds the location list. g is only used for Place and
// Region and may be nil otherwise.
func (t Targets) ResolveLocations(ctx context.Context, g Geocoder) ([]model.Location, error) {
	if t.sourceCount() > 1 {
		return nil, fmt.Errorf("choose one location source: locations file, place, lat/lng or region")
	}
	if t.sourceCount() == 0 && t.BoundaryFile == "" {
		return nil, fmt.Errorf("no location source given")
	}
	spacing := t.SpacingKm
	if spacing <= 0 {
		spacing = DefaultSpacingKm
	}

	var area orb.MultiPolygon
	var areaBound orb.Bound
	if t.BoundaryFile != "" {
		bs, err := geo.LoadBoundaries(t.BoundaryFile)
		if err != nil {
			return nil, err
		}
		if area, err = bs.Polygon(t.Zone); err != nil {
			return nil, err
		}
		if areaBound, err = bs.Bounds(t.Zone); err != nil {
			return nil, err
		}
	}

	var locs []model.Location
	switch {
	case t.LocationsFile != "":
		var err error
		if locs, err = sheet.ReadLocations(t.LocationsFile); err != nil {
			return nil, fmt.Errorf("reading locations: %w", err)
		}

	case t.Place != "":
		if g == nil {
			return nil, fmt.Errorf("no geocoder to resolve %q", t.Place)
		}
		center, err := g.Forward(ctx, t.Place)
		if err != nil {
			return nil, fmt.Errorf("geocoding %q: %w", t.Place, err)
		}
		locs, err = aroundCenter(center, t.RadiusKm, spacing)
		if err != nil {
			return nil, err
		}

	case t.hasCenter():
		center := model.Location{Lat: strings.TrimSpace(t.Lat), Lng: strings.TrimSpace(t.Lng)}
		var err error
		if locs, err = aroundCenter(center, t.RadiusKm, spacing); err != nil {
			return nil, err
		}

	case t.Region != "":
		if g == nil {
			return nil, fmt.Errorf("no geocoder to resolve region %q", t.Region)
		}
		bound, err := g.Region(ctx, t.Region, t.Country)
		if err != nil {
			return nil, fmt.Errorf("geocoding region %q: %w", t.Region, err)
		}
		locs = geo.GenerateGrid(bound, spacing)

	default:
		locs = geo.GenerateGrid(areaBound, spacing)
	}

	if area != nil {
		locs = geo.FilterWithin(locs, area)
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("no locations to search from")
	}
	return locs, nil
}

// aroundCenter keeps center verbatim when there is no radius, otherwise
// lays a radius grid around it.
func aroundCenter(center model.Location, radiusKm, spacingKm float64) ([]model.Location, error) {
	p, ok := center.Point()
	if !ok {
		return nil, fmt.Errorf("invalid coordinates %q", center.String())
	}
	if radiusKm <= 0 {
		return []model.Location{center}, nil
	}
	return geo.GenerateRadiusGrid(p, radiusKm, spacingKm), nil
}

// ParseFloat parses an optional numeric form value; blank is zero.
func ParseFloat(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", name)
	}
	return v, nil
}
