// Package load imports a record set into the regions, service_types and
// bluehands tables in a single transaction.
package load

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bluehands/internal/config"
	"github.com/sells-group/bluehands/internal/db"
	"github.com/sells-group/bluehands/internal/model"
	"github.com/sells-group/bluehands/internal/recordset"
)

// Stage names a step of a load run.
type Stage string

// Load stages in execution order. Rollback is entered from any stage after
// the transaction opens.
const (
	StageLoadFile         Stage = "LOAD_FILE"
	StageValidateSchema   Stage = "VALIDATE_SCHEMA"
	StageNormalizeRows    Stage = "NORMALIZE_ROWS"
	StageUpsertDimensions Stage = "UPSERT_DIMENSIONS"
	StageResolveFKs       Stage = "RESOLVE_FKS"
	StageBulkInsert       Stage = "BULK_INSERT"
	StageCommit           Stage = "COMMIT"
	StageRollback         Stage = "ROLLBACK"
)

// Table names.
const (
	TableRegions      = "regions"
	TableServiceTypes = "service_types"
	TableBranches     = "bluehands"
)

// StageError reports the stage a load failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("load: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	return &StageError{Stage: s, Err: err}
}

// Report summarizes a load run.
type Report struct {
	Mode                string `json:"mode"`
	DryRun              bool   `json:"dry_run"`
	Regions             int    `json:"regions"`
	ServiceTypes        int    `json:"service_types"`
	RegionsCreated      int64  `json:"regions_created"`
	ServiceTypesCreated int64  `json:"service_types_created"`
	RowsRead            int    `json:"rows_read"`
	RowsClean           int    `json:"rows_clean"`
	DroppedRequired     int    `json:"dropped_required"`
	DroppedUnresolved   int    `json:"dropped_unresolved"`
	DroppedDuplicate    int    `json:"dropped_duplicate"`
	Inserted            int64  `json:"inserted"`
}

// Metadata flattens the report for the run log.
func (r *Report) Metadata() map[string]any {
	return map[string]any{
		"mode":                  r.Mode,
		"dry_run":               r.DryRun,
		"regions":               r.Regions,
		"service_types":         r.ServiceTypes,
		"regions_created":       r.RegionsCreated,
		"service_types_created": r.ServiceTypesCreated,
		"rows_read":             r.RowsRead,
		"rows_clean":            r.RowsClean,
		"dropped_required":      r.DroppedRequired,
		"dropped_unresolved":    r.DroppedUnresolved,
		"dropped_duplicate":     r.DroppedDuplicate,
	}
}

// Record is a normalized record set row, before foreign keys are resolved.
type Record struct {
	Region    string
	Name      string
	Type      string
	Address   *string
	Phone     *string
	Latitude  *float64
	Longitude *float64
	Flags     []int
}

// NormalizeRow normalizes one row. It reports false when region, name or
// type is absent.
func NormalizeRow(row recordset.Row) (Record, bool) {
	region := NormalizeString(row[recordset.ColRegion])
	name := NormalizeString(row[recordset.ColName])
	typ := NormalizeString(row[recordset.ColType])
	if region == nil || name == nil || typ == nil {
		return Record{}, false
	}

	flags := make([]int, 0, len(model.AllFlags()))
	for _, f := range model.AllFlags() {
		flags = append(flags, SafeFlag(row[f.Column()]))
	}

	return Record{
		Region:    *region,
		Name:      *name,
		Type:      *typ,
		Address:   NormalizeString(row[recordset.ColAddress]),
		Phone:     CanonicalPhone(row[recordset.ColPhone]),
		Latitude:  SafeFloat(row[recordset.ColLatitude]),
		Longitude: SafeFloat(row[recordset.ColLongitude]),
		Flags:     flags,
	}, true
}

// BranchColumns returns the bluehands columns written by a load, in order.
func BranchColumns() []string {
	cols := []string{"name", "region_id", "type_id", "address", "phone", "latitude", "longitude"}
	return append(cols, model.FlagColumns()...)
}

// Values returns the record as a bluehands row in BranchColumns order.
func (r Record) Values(regionID, typeID int64) []any {
	vals := []any{r.Name, regionID, typeID, strOrNil(r.Address), strOrNil(r.Phone), floatOrNil(r.Latitude), floatOrNil(r.Longitude)}
	for _, v := range r.Flags {
		vals = append(vals, int16(v))
	}
	return vals
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// Option configures a Loader.
type Option func(*Loader)

// WithMode selects how facts are written: config.LoadModeUpsert,
// config.LoadModeReplace or config.LoadModeAppend.
func WithMode(mode string) Option {
	return func(l *Loader) { l.mode = mode }
}

// WithDryRun runs every stage up to RESOLVE_FKS and then rolls back.
func WithDryRun(dry bool) Option {
	return func(l *Loader) { l.dryRun = dry }
}

// Loader imports record sets.
type Loader struct {
	pool   db.Pool
	mode   string
	dryRun bool
}

// New creates a Loader writing through pool. The default mode is upsert.
func New(pool db.Pool, opts ...Option) *Loader {
	l := &Loader{pool: pool, mode: config.LoadModeUpsert}
	for _, o := range opts {
		o(l)
	}
	return l
}

// ReadFile reads the record set at path and checks its header. It touches
// no database, so a bad input fails before any connection is made.
func ReadFile(ctx context.Context, path string) (*recordset.Set, error) {
	log := zap.L().With(zap.String("component", "load"))
	log.Info("stage", zap.String("stage", string(StageLoadFile)), zap.String("path", path))

	set, err := recordset.Read(ctx, path)
	if err != nil {
		return nil, stageErr(StageLoadFile, err)
	}

	log.Info("stage", zap.String("stage", string(StageValidateSchema)))
	if err := ValidateSchema(set); err != nil {
		return nil, err
	}
	return set, nil
}

// ValidateSchema reports the required columns set lacks.
func ValidateSchema(set *recordset.Set) error {
	if missing := set.Missing(); len(missing) > 0 {
		return stageErr(StageValidateSchema, eris.Errorf(
			"record set is missing required columns [%s]; present columns [%s]",
			strings.Join(missing, ", "), strings.Join(set.Header, ", "),
		))
	}
	return nil
}

// LoadFile reads the record set at path and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Report, error) {
	set, err := ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, set)
}

// Load validates, normalizes and writes set. All writes happen in one
// transaction; on any failure nothing is committed.
func (l *Loader) Load(ctx context.Context, set *recordset.Set) (*Report, error) {
	log := zap.L().With(zap.String("component", "load"), zap.String("mode", l.mode))
	start := time.Now()
	stage := func(s Stage) { log.Info("stage", zap.String("stage", string(s))) }

	switch l.mode {
	case config.LoadModeUpsert, config.LoadModeReplace, config.LoadModeAppend:
	default:
		return nil, eris.Errorf("load: unknown mode %q", l.mode)
	}

	rep := &Report{Mode: l.mode, DryRun: l.dryRun, RowsRead: len(set.Rows)}

	stage(StageValidateSchema)
	if err := ValidateSchema(set); err != nil {
		return nil, err
	}

	stage(StageNormalizeRows)
	records := make([]Record, 0, len(set.Rows))
	for _, row := range set.Rows {
		rec, ok := NormalizeRow(row)
		if !ok {
			rep.DroppedRequired++
			continue
		}
		records = append(records, rec)
	}
	rep.RowsClean = len(records)

	regions, types := distinct(records)
	rep.Regions, rep.ServiceTypes = len(regions), len(types)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, stageErr(StageUpsertDimensions, eris.Wrap(err, "begin tx"))
	}

	fail := func(s Stage, err error) (*Report, error) {
		stage(StageRollback)
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error("rollback failed", zap.Error(rbErr))
		}
		log.Error("load failed", zap.String("stage", string(s)), zap.Error(err))
		return nil, stageErr(s, err)
	}

	stage(StageUpsertDimensions)
	if rep.RegionsCreated, err = db.InsertIgnore(ctx, tx, TableRegions, "name", regions); err != nil {
		return fail(StageUpsertDimensions, err)
	}
	if rep.ServiceTypesCreated, err = db.InsertIgnore(ctx, tx, TableServiceTypes, "name", types); err != nil {
		return fail(StageUpsertDimensions, err)
	}

	stage(StageResolveFKs)
	regionIDs, err := nameIDs(ctx, tx, TableRegions)
	if err != nil {
		return fail(StageResolveFKs, err)
	}
	typeIDs, err := nameIDs(ctx, tx, TableServiceTypes)
	if err != nil {
		return fail(StageResolveFKs, err)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rid, rok := regionIDs[rec.Region]
		tid, tok := typeIDs[rec.Type]
		if !rok || !tok {
			rep.DroppedUnresolved++
			continue
		}
		rows = append(rows, rec.Values(rid, tid))
	}
	rows, rep.DroppedDuplicate = dedupRows(rows)

	if l.dryRun {
		stage(StageRollback)
		if err := tx.Rollback(ctx); err != nil {
			return nil, stageErr(StageRollback, err)
		}
		rep.Inserted = int64(len(rows))
		log.Info("dry run complete", zap.Int("rows", len(rows)))
		return rep, nil
	}

	stage(StageBulkInsert)
	if rep.Inserted, err = l.insert(ctx, tx, rows); err != nil {
		return fail(StageBulkInsert, err)
	}

	stage(StageCommit)
	if err := tx.Commit(ctx); err != nil {
		return fail(StageCommit, eris.Wrap(err, "commit tx"))
	}

	log.Info("load complete",
		zap.Int("rows_read", rep.RowsRead),
		zap.Int64("inserted", rep.Inserted),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, nil
}

// insert writes rows according to the load mode. Every mode respects the
// unique (name, address) key: rows are already free of in-batch duplicates,
// replace clears the table first, append skips keys already stored and
// upsert overwrites them.
func (l *Loader) insert(ctx context.Context, tx pgx.Tx, rows [][]any) (int64, error) {
	cols := BranchColumns()
	switch l.mode {
	case config.LoadModeReplace:
		if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{TableBranches}.Sanitize()); err != nil {
			return 0, eris.Wrap(err, "clear bluehands")
		}
		return db.CopyFrom(ctx, tx, TableBranches, cols, rows)
	case config.LoadModeAppend:
		return db.BulkUpsert(ctx, tx, db.UpsertConfig{
			Table:        TableBranches,
			Columns:      cols,
			ConflictKeys: naturalKey,
			UpdateCols:   []string{},
		}, rows)
	default:
		return db.BulkUpsert(ctx, tx, db.UpsertConfig{
			Table:        TableBranches,
			Columns:      cols,
			ConflictKeys: naturalKey,
		}, rows)
	}
}

// naturalKey is the unique key of bluehands.
var naturalKey = []string{"name", "address"}

// dedupRows keeps the last row per (name, address), at the position of the
// first occurrence. A nil address is its own key value, matching the
// NULLS NOT DISTINCT index. It returns the rows kept and the number dropped.
func dedupRows(rows [][]any) ([][]any, int) {
	type key struct {
		name    any
		address any
	}
	seen := make(map[key]int, len(rows))
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		k := key{name: r[0], address: r[3]}
		if i, ok := seen[k]; ok {
			out[i] = r
			continue
		}
		seen[k] = len(out)
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

// distinct returns the sorted distinct region and type names.
func distinct(records []Record) (regions, types []string) {
	rs := make(map[string]bool)
	ts := make(map[string]bool)
	for _, r := range records {
		if !rs[r.Region] {
			rs[r.Region] = true
			regions = append(regions, r.Region)
		}
		if !ts[r.Type] {
			ts[r.Type] = true
			types = append(types, r.Type)
		}
	}
	slices.Sort(regions)
	slices.Sort(types)
	return regions, types
}

// nameIDs loads the complete name -> id map of a dimension table.
func nameIDs(ctx context.Context, pool db.Pool, table string) (map[string]int64, error) {
	rows, err := pool.Query(ctx, "SELECT id, name FROM "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, eris.Wrapf(err, "query %s", table)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, eris.Wrapf(err, "scan %s", table)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}
