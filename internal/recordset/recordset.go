// Package recordset reads and writes the flat record set exchanged between
// the harvester and the loader: one row per branch, UTF-8 with a leading
// byte-order mark so spreadsheet tools detect the encoding.
package recordset

import (
	"strconv"

	"github.com/sells-group/bluehands/internal/model"
)

// Scalar column names.
const (
	ColRegion    = "region"
	ColName      = "name"
	ColType      = "type"
	ColAddress   = "address"
	ColPhone     = "phone"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
)

// SheetName is the worksheet name used for XLSX exports.
const SheetName = "bluehands"

// Header returns the record set columns in file order: the seven scalar
// columns followed by the flag columns.
func Header() []string {
	h := []string{ColRegion, ColName, ColType, ColAddress, ColPhone, ColLatitude, ColLongitude}
	return append(h, model.FlagColumns()...)
}

// Row maps column name to the raw cell text.
type Row map[string]string

// Set is a decoded record set.
type Set struct {
	Header []string
	Rows   []Row
}

// Missing returns the required columns absent from the header, in Header order.
func (s *Set) Missing() []string {
	have := make(map[string]bool, len(s.Header))
	for _, h := range s.Header {
		have[h] = true
	}
	var missing []string
	for _, c := range Header() {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// Cells renders a listing as a row of cells in Header order. Flags are
// written as 0 or 1.
func Cells(rec model.RawListing) []string {
	cells := []string{
		rec.RegionAlias,
		rec.Name,
		rec.Type,
		rec.Address,
		rec.Phone,
		formatFloat(rec.Latitude),
		formatFloat(rec.Longitude),
	}
	for _, v := range rec.Flags.Ints() {
		cells = append(cells, strconv.Itoa(v))
	}
	return cells
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
