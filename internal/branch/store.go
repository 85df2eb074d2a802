package branch

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bluehands/internal/db"
	"github.com/sells-group/bluehands/internal/model"
)

// Result is a branch returned by a search.
type Result struct {
	model.Branch
	Services   []string `json:"services"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Store reads branches and dimensions.
type Store struct {
	pool db.Pool
}

// NewStore creates a Store backed by pool.
func NewStore(pool db.Pool) *Store {
	return &Store{pool: pool}
}

// Search returns the branches matching f. With f.Near set, results are
// ranked by distance before the limit applies.
func (s *Store) Search(ctx context.Context, f Filter) ([]Result, error) {
	sql, args := BuildQuery(f)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "branch: search")
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			b     model.Branch
			flags = make([]int16, len(model.AllFlags()))
		)
		dest := []any{&b.ID, &b.Name, &b.RegionID, &b.Region, &b.TypeID, &b.Type,
			&b.Address, &b.Phone, &b.Latitude, &b.Longitude}
		for i := range flags {
			dest = append(dest, &flags[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "branch: scan search row")
		}
		for i, f := range model.AllFlags() {
			b.Flags = b.Flags.Set(f, flags[i] == 1)
		}
		services := b.Services()
		if services == nil {
			services = []string{}
		}
		results = append(results, Result{Branch: b, Services: services})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "branch: iterate search rows")
	}

	if f.Near != nil {
		SortByDistance(results, *f.Near)
		if f.Limit > 0 && len(results) > f.Limit {
			results = results[:f.Limit]
		}
	}
	return results, nil
}

// Regions lists every region ordered by id.
func (s *Store) Regions(ctx context.Context) ([]model.Region, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM regions ORDER BY id")
	if err != nil {
		return nil, eris.Wrap(err, "branch: list regions")
	}
	defer rows.Close()

	out := []model.Region{}
	for rows.Next() {
		var r model.Region
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, eris.Wrap(err, "branch: scan region")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ServiceTypes lists every service type ordered by id.
func (s *Store) ServiceTypes(ctx context.Context) ([]model.ServiceType, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM service_types ORDER BY id")
	if err != nil {
		return nil, eris.Wrap(err, "branch: list service types")
	}
	defer rows.Close()

	out := []model.ServiceType{}
	for rows.Next() {
		var t model.ServiceType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, eris.Wrap(err, "branch: scan service type")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
