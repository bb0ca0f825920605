package geo

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// nameKeys are the feature properties a boundary can be looked up by.
var nameKeys = []string{"name", "NAME", "ADMIN", "ISO_A2", "ISO_A3", "id"}

// BoundaryStore indexes the polygon features of a GeoJSON file, typically
// delivery zones or city limits.
type BoundaryStore struct {
	features map[string]*geojson.Feature // key: lowercase name
	names    []string
}

// LoadBoundaries reads a GeoJSON FeatureCollection from path.
func LoadBoundaries(path string) (*BoundaryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundaries: %w", err)
	}
	return ParseBoundaries(data)
}

// ParseBoundaries indexes every Polygon or MultiPolygon feature in data.
// A file with a single feature is also reachable under the empty name.
func ParseBoundaries(data []byte) (*BoundaryStore, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}

	store := &BoundaryStore{features: make(map[string]*geojson.Feature)}
	for _, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		display := ""
		for _, k := range nameKeys {
			name, ok := f.Properties[k].(string)
			if !ok || name == "" {
				continue
			}
			if display == "" {
				display = name
			}
			store.features[strings.ToLower(name)] = f
		}
		if display != "" {
			store.names = append(store.names, display)
		}
		if len(fc.Features) == 1 {
			store.features[""] = f
		}
	}
	if len(store.features) == 0 {
		return nil, fmt.Errorf("no polygon features found")
	}
	sort.Strings(store.names)
	return store, nil
}

// Polygon returns the area for a feature by name or ISO code.
func (bs *BoundaryStore) Polygon(name string) (orb.MultiPolygon, error) {
	f, ok := bs.features[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("boundary %q not found (have: %s)", name, strings.Join(bs.Names(), ", "))
	}

	switch g := f.Geometry.(type) {
	case orb.MultiPolygon:
		return g, nil
	case orb.Polygon:
		return orb.MultiPolygon{g}, nil
	default:
		return nil, fmt.Errorf("unexpected geometry type %T for %q", g, name)
	}
}

// Bounds returns the bounding box of a named feature.
func (bs *BoundaryStore) Bounds(name string) (orb.Bound, error) {
	mp, err := bs.Polygon(name)
	if err != nil {
		return orb.Bound{}, err
	}
	return mp.Bound(), nil
}

// Names lists the display name of every indexed feature, sorted.
func (bs *BoundaryStore) Names() []string {
	return append([]string(nil), bs.names...)
}
