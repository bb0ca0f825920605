package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/rendis/dishtap/internal/model"
)

// FilterWithin keeps the locations that fall inside area. Locations whose
// coordinates do not parse are dropped.
func FilterWithin(locs []model.Location, area orb.MultiPolygon) []model.Location {
	var kept []model.Location
	for _, l := range locs {
		p, ok := l.Point()
		if !ok {
			continue
		}
		if planar.MultiPolygonContains(area, p) {
			kept = append(kept, l)
		}
	}
	return kept
}
