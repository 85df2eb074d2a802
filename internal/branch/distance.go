package branch

import (
	"fmt"
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// SortByDistance sets DistanceKm on every result with a location and sorts
// nearest first. Results without a location keep their order at the end.
func SortByDistance(results []Result, origin Point) {
	for i := range results {
		results[i].DistanceKm = nil
		if results[i].HasLocation() {
			d := Haversine(origin, Point{Lat: *results[i].Latitude, Lon: *results[i].Longitude})
			results[i].DistanceKm = &d
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		di, dj := results[i].DistanceKm, results[j].DistanceKm
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}

// FormatDistance renders km as whole metres under one kilometre and as
// kilometres with one decimal otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%dm", int(km*1000))
	}
	return fmt.Sprintf("%.1fkm", km)
}
