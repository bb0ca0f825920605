package geo

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/rendis/dishtap/internal/model"
)

const kmPerDegreeLat = 111.0

// LocationFromPoint formats p as a location with 6 decimal places.
func LocationFromPoint(p orb.Point) model.Location {
	return model.Location{
		Lat: strconv.FormatFloat(p.Lat(), 'f', 6, 64),
		Lng: strconv.FormatFloat(p.Lon(), 'f', 6, 64),
	}
}

// GenerateGrid lays search points over bound, spacingKm apart, starting half
// a step in from the south-west corner.
func GenerateGrid(bound orb.Bound, spacingKm float64) []model.Location {
	if spacingKm <= 0 {
		return nil
	}
	latStep := spacingKm / kmPerDegreeLat

	var locs []model.Location
	for lat := bound.Min.Lat() + latStep/2; lat < bound.Max.Lat(); lat += latStep {
		// Adjust longitude step for Mercator distortion
		lngStep := latStep / math.Cos(lat*math.Pi/180.0)
		for lng := bound.Min.Lon() + lngStep/2; lng < bound.Max.Lon(); lng += lngStep {
			locs = append(locs, LocationFromPoint(orb.Point{lng, lat}))
		}
	}
	return locs
}

// GenerateRadiusGrid returns grid points within radiusKm of center. The
// center itself is always included first.
func GenerateRadiusGrid(center orb.Point, radiusKm, spacingKm float64) []model.Location {
	locs := []model.Location{LocationFromPoint(center)}
	if radiusKm <= 0 || spacingKm <= 0 {
		return locs
	}

	latDeg := radiusKm / kmPerDegreeLat
	lngDeg := radiusKm / (kmPerDegreeLat * math.Cos(center.Lat()*math.Pi/180.0))
	bound := orb.Bound{
		Min: orb.Point{center.Lon() - lngDeg, center.Lat() - latDeg},
		Max: orb.Point{center.Lon() + lngDeg, center.Lat() + latDeg},
	}

	// Filter points outside the radius
	for _, l := range GenerateGrid(bound, spacingKm) {
		p, _ := l.Point()
		if orbgeo.DistanceHaversine(center, p)/1000 <= radiusKm && l != locs[0] {
			locs = append(locs, l)
		}
	}
	return locs
}
