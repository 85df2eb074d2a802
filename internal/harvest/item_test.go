package harvest

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bluehands/internal/model"
)

var seoul = Region{Alias: "서울", Name: "서울특별시"}

func TestCoerceCoordinate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 37.5, 37.5},
		{"string", "127.0275", 127.0275},
		{"padded string", " 37.1 ", 37.1},
		{"json number", json.Number("126.9"), 126.9},
		{"int", 37, 37},
		{"nil", nil, 0},
		{"empty", "", 0},
		{"junk", "abc", 0},
		{"nan", math.NaN(), 0},
		{"nan string", "NaN", 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceCoordinate(tt.in))
		})
	}
}

func TestReconcileCoordinates(t *testing.T) {
	lat, lon := ReconcileCoordinates(127.0, 37.5)
	assert.Equal(t, 37.5, lat)
	assert.Equal(t, 127.0, lon)

	lat, lon = ReconcileCoordinates(37.5, 127.0)
	assert.Equal(t, 37.5, lat)
	assert.Equal(t, 127.0, lon)
}

func TestToListing(t *testing.T) {
	it := Item{
		"asnNm":         "테스트지점",
		"apimCeqPlntNm": "종합",
		"pbzAdrSbc":     "서울특별시 강남구 테헤란로 1",
		"repnTn":        " 02-123-4567 ",
		"mapLaeVal":     "127.0",
		"mapLoeVal":     "37.5",
		"spcialSrvH003": "Y",
		"spcialSrvC002": " Y ",
		"spcialSrvH001": "y",
		"spcialSrvC001": "N",
		"spcialSrvC003": nil,
	}

	rec, ok := ToListing(seoul, it)
	require.True(t, ok)
	assert.Equal(t, "서울", rec.RegionAlias)
	assert.Equal(t, "서울특별시", rec.RegionName)
	assert.Equal(t, "테스트지점", rec.Name)
	assert.Equal(t, "종합", rec.Type)
	assert.Equal(t, "서울특별시 강남구 테헤란로 1", rec.Address)
	assert.Equal(t, "02-123-4567", rec.Phone)
	assert.Equal(t, 37.5, rec.Latitude)
	assert.Equal(t, 127.0, rec.Longitude)

	assert.True(t, rec.Flags.Has(model.FlagEV))
	assert.True(t, rec.Flags.Has(model.FlagEVTech), "sentinel is trimmed")
	assert.False(t, rec.Flags.Has(model.FlagHydrogen), "sentinel is case-sensitive")
	assert.False(t, rec.Flags.Has(model.FlagFrame))
	assert.False(t, rec.Flags.Has(model.FlagCSExcellent))
	assert.False(t, rec.Flags.Has(model.FlagNLine), "absent key is false")
}

func TestToListing_ZeroCoordinateDropped(t *testing.T) {
	cases := []Item{
		{"asnNm": "a", "mapLaeVal": "0", "mapLoeVal": "127.0"},
		{"asnNm": "b", "mapLaeVal": 37.5, "mapLoeVal": 0.0},
		{"asnNm": "c", "mapLaeVal": "", "mapLoeVal": "127.0"},
		{"asnNm": "d"},
	}
	for _, it := range cases {
		_, ok := ToListing(seoul, it)
		assert.False(t, ok, it.Name())
	}
}

func TestItemStr_NonString(t *testing.T) {
	it := Item{"repnTn": 15881234.0, "asnNm": nil}
	assert.Equal(t, "15881234", it.str("repnTn"))
	assert.Equal(t, "", it.str("asnNm"))
	assert.Equal(t, "", it.str("missing"))
}
