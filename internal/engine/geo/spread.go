package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/rendis/dishtap/internal/model"
)

// Spread summarizes how far apart a set of search locations are.
type Spread struct {
	Points        int
	Bound         orb.Bound
	Center        orb.Point
	MaxDistanceKm float64 // farthest point from Center
	AreaKm2       float64 // of the bounding box
}

// Summarize computes the spread of locs, ignoring unparseable entries.
// ok is false when no location parses.
func Summarize(locs []model.Location) (Spread, bool) {
	var mp orb.MultiPoint
	for _, l := range locs {
		if p, ok := l.Point(); ok {
			mp = append(mp, p)
		}
	}
	if len(mp) == 0 {
		return Spread{}, false
	}

	bound := mp.Bound()
	s := Spread{
		Points: len(mp),
		Bound:  bound,
		Center: bound.Center(),
	}
	for _, p := range mp {
		if d := orbgeo.DistanceHaversine(s.Center, p) / 1000; d > s.MaxDistanceKm {
			s.MaxDistanceKm = d
		}
	}
	s.AreaKm2 = orbgeo.Area(bound.ToPolygon()) / 1e6
	return s, true
}

// DishFeatures builds a GeoJSON collection with one point per dish at the
// location it was first seen. Dishes with unparseable sources are skipped.
func DishFeatures(dishes []model.Dish) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, d := range dishes {
		p, ok := d.Source.Point()
		if !ok {
			continue
		}
		f := geojson.NewFeature(p)
		f.Properties = geojson.Properties{
			"query":         d.Query,
			"dish_name":     d.DishName,
			"restaurant":    d.RestaurantName,
			"rating":        d.Rating,
			"total_ratings": d.TotalRatings,
			"price":         d.Price,
			"locality":      d.Locality,
			"area_name":     d.AreaName,
			"cuisine":       d.Cuisine,
		}
		fc.Append(f)
	}
	return fc
}
