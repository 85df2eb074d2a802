package harvest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/bluehands/internal/model"
)

// Item keys in the endpoint's result objects.
const (
	keyName      = "asnNm"
	keyType      = "apimCeqPlntNm"
	keyAddress   = "pbzAdrSbc"
	keyPhone     = "repnTn"
	keyCoordA    = "mapLaeVal"
	keyCoordB    = "mapLoeVal"
	flagSentinel = "Y"
)

// Item is one raw result object as decoded from the endpoint.
type Item map[string]any

// CoerceCoordinate converts a raw coordinate value to a float. Missing,
// empty, non-numeric and non-finite values become 0.
func CoerceCoordinate(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case json.Number:
		f, _ = x.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ReconcileCoordinates orders an ambiguous coordinate pair. The value whose
// magnitude exceeds 100 is the longitude and the other is the latitude.
//
// This only holds where every latitude is below 100 and every longitude
// above it, which is true for South Korea (lat 33-43, lon 124-132). It is not
// a general rule and must not be reused for other locales.
func ReconcileCoordinates(a, b float64) (lat, lon float64) {
	if math.Abs(a) > 100 {
		return b, a
	}
	return a, b
}

// ToListing converts a raw item into a listing for region. It reports false
// when either coordinate is zero, in which case the item must be dropped.
func ToListing(region Region, it Item) (model.RawListing, bool) {
	a := CoerceCoordinate(it[keyCoordA])
	b := CoerceCoordinate(it[keyCoordB])
	if a == 0 || b == 0 {
		return model.RawListing{}, false
	}
	lat, lon := ReconcileCoordinates(a, b)

	var flags model.Flags
	for _, f := range model.AllFlags() {
		flags = flags.Set(f, strings.TrimSpace(it.str(f.SourceKey())) == flagSentinel)
	}

	return model.RawListing{
		RegionAlias: region.Alias,
		RegionName:  region.Name,
		Name:        it.str(keyName),
		Type:        it.str(keyType),
		Address:     it.str(keyAddress),
		Phone:       strings.TrimSpace(it.str(keyPhone)),
		Latitude:    lat,
		Longitude:   lon,
		Flags:       flags,
	}, true
}

// Name returns the item's branch name, for logging.
func (it Item) Name() string {
	return it.str(keyName)
}

func (it Item) str(key string) string {
	switch v := it[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
