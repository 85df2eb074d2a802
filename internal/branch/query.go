// Package branch is the read side of the bluehands tables: filtered search,
// dimension listings, distance ranking and the HTTP API over them.
package branch

import (
	"fmt"
	"strings"

	"github.com/sells-group/bluehands/internal/model"
)

// AllRegions is the region filter value meaning "no region filter".
const AllRegions = "(전체)"

// Point is a WGS84 position.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Filter selects branches. Zero values do not filter.
type Filter struct {
	// Text matches a substring of the name or the address, case-insensitively.
	Text string
	// Flags must all be set on a branch.
	Flags []model.Flag
	// Region is the exact region name.
	Region string
	// Near ranks results by distance from a point.
	Near *Point
	// Limit caps the number of results; <= 0 is unlimited.
	Limit int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const selectBranches = `SELECT b.id, b.name, b.region_id, COALESCE(r.name, ''), b.type_id, COALESCE(t.name, ''),
	b.address, b.phone, b.latitude, b.longitude`

// BuildQuery renders f as a parameterized query over bluehands joined with
// its dimensions. Conditions are AND-ed and rows come back ordered by id.
// With Near set the limit is left to the caller, which must rank first.
func BuildQuery(f Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(selectBranches)
	for _, c := range model.FlagColumns() {
		sb.WriteString(", b.")
		sb.WriteString(c)
	}
	sb.WriteString("\nFROM bluehands b\nLEFT JOIN regions r ON b.region_id = r.id\nLEFT JOIN service_types t ON b.type_id = t.id")

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text := strings.TrimSpace(f.Text); text != "" {
		p := arg("%" + likeEscaper.Replace(text) + "%")
		conds = append(conds, fmt.Sprintf("(b.name ILIKE %s OR b.address ILIKE %s)", p, p))
	}
	seen := map[model.Flag]bool{}
	for _, fl := range f.Flags {
		// Column names come only from the fixed flag table.
		if fl.Column() == "" || seen[fl] {
			continue
		}
		seen[fl] = true
		conds = append(conds, "b."+fl.Column()+" = 1")
	}
	if region := strings.TrimSpace(f.Region); region != "" && region != AllRegions {
		conds = append(conds, "r.name = "+arg(region))
	}

	if len(conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString("\nORDER BY b.id")
	if f.Limit > 0 && f.Near == nil {
		sb.WriteString(" LIMIT " + arg(f.Limit))
	}
	return sb.String(), args
}
