package load

import (
	"math"
	"strconv"
	"strings"
)

// absentMarkers are cell values that mean "no value" in exported record sets.
var absentMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"NaN":  true,
	"None": true,
	"null": true,
	"NULL": true,
	"<NA>": true,
}

// NormalizeString trims s and returns nil for empty cells and absence markers.
func NormalizeString(s string) *string {
	s = strings.TrimSpace(s)
	if absentMarkers[s] {
		return nil
	}
	return &s
}

// CanonicalPhone formats a Korean phone number with dashes. Non-digits are
// stripped first; a value with no digits is absent.
//
//	010 + 8 digits          -> 010-XXXX-XXXX
//	02  + 7 digits          -> 02-XXX-XXXX
//	02  + 8 digits          -> 02-XXXX-XXXX
//	other 10 digits         -> XXX-XXX-XXXX
//	other 11 digits         -> XXX-XXXX-XXXX
//	anything else (1588...) -> digits unchanged
func CanonicalPhone(s string) *string {
	n := NormalizeString(s)
	if n == nil {
		return nil
	}

	var b strings.Builder
	for _, r := range *n {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if d == "" {
		return nil
	}

	var out string
	switch {
	case len(d) == 11 && strings.HasPrefix(d, "010"):
		out = d[:3] + "-" + d[3:7] + "-" + d[7:]
	case strings.HasPrefix(d, "02") && len(d) == 9:
		out = d[:2] + "-" + d[2:5] + "-" + d[5:]
	case strings.HasPrefix(d, "02") && len(d) == 10:
		out = d[:2] + "-" + d[2:6] + "-" + d[6:]
	case len(d) == 10:
		out = d[:3] + "-" + d[3:6] + "-" + d[6:]
	case len(d) == 11:
		out = d[:3] + "-" + d[3:7] + "-" + d[7:]
	default:
		out = d
	}
	return &out
}

// SafeFloat parses a coordinate cell. Absent, non-numeric and non-finite
// values are nil.
func SafeFloat(s string) *float64 {
	n := NormalizeString(s)
	if n == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*n, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// SafeInt parses a flag cell, accepting numeric text such as "1.0". Absent,
// non-numeric and non-finite values are 0.
func SafeInt(s string) int {
	f := SafeFloat(s)
	if f == nil {
		return 0
	}
	return int(*f)
}

// SafeFlag parses a flag cell as 0 or 1. Any non-zero number is 1.
func SafeFlag(s string) int {
	if f := SafeFloat(s); f != nil && *f != 0 {
		return 1
	}
	return 0
}
