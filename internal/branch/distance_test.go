package branch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/bluehands/internal/model"
)

func TestHaversine(t *testing.T) {
	seoul := Point{Lat: 37.5665, Lon: 126.9780}
	busan := Point{Lat: 35.1796, Lon: 129.0756}

	assert.Zero(t, Haversine(seoul, seoul))
	assert.InDelta(t, 325, Haversine(seoul, busan), 5)
	assert.InDelta(t, Haversine(seoul, busan), Haversine(busan, seoul), 1e-9)

	// One degree of latitude is about 111.2 km.
	assert.InDelta(t, 111.19, Haversine(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0}), 0.01)
}

func located(id int64, lat, lon float64) Result {
	return Result{Branch: model.Branch{ID: id, Latitude: &lat, Longitude: &lon}}
}

func TestSortByDistance(t *testing.T) {
	origin := Point{Lat: 37.5, Lon: 127.0}
	results := []Result{
		{Branch: model.Branch{ID: 1}},
		located(2, 37.6, 127.0),
		located(3, 37.5, 127.001),
		{Branch: model.Branch{ID: 4}},
		located(5, 35.0, 129.0),
	}

	SortByDistance(results, origin)

	var ids []int64
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 2, 5, 1, 4}, ids)
	assert.NotNil(t, results[0].DistanceKm)
	assert.Less(t, *results[0].DistanceKm, 0.1)
	assert.Nil(t, results[3].DistanceKm)
	assert.Nil(t, results[4].DistanceKm)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0m", FormatDistance(0))
	assert.Equal(t, "850m", FormatDistance(0.85))
	assert.Equal(t, "999m", FormatDistance(0.9999))
	assert.Equal(t, "1.0km", FormatDistance(1))
	assert.Equal(t, "12.3km", FormatDistance(12.34))
}
