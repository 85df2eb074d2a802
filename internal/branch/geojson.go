package branch

import (
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders results with a location as GeoJSON points.
// Results without coordinates are skipped.
func FeatureCollection(results []Result) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, r := range results {
		if !r.HasLocation() {
			continue
		}
		props := map[string]any{
			"name":     r.Name,
			"region":   r.Region,
			"type":     r.Type,
			"services": r.Services,
		}
		if r.Address != nil {
			props["address"] = *r.Address
		}
		if r.Phone != nil {
			props["phone"] = *r.Phone
		}
		if r.DistanceKm != nil {
			props["distance_km"] = *r.DistanceKm
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         strconv.FormatInt(r.ID, 10),
			Geometry:   geom.NewPointFlat(geom.XY, []float64{*r.Longitude, *r.Latitude}).SetSRID(4326),
			Properties: props,
		})
	}
	return fc
}
