package harvest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bluehands/internal/model"
)

// DefaultPageSize is the number of items the endpoint returns per page.
const DefaultPageSize = 10

// PartitionResult is everything fetched for one region and why it stopped.
// Err is nil when the region was paged to the end.
type PartitionResult struct {
	Alias      string
	FullName   string
	Records    []model.RawListing
	Pages      int // pages successfully fetched
	TotalCount int // as reported by the first page
	Dropped    int // items skipped for a zero coordinate
	Err        error
}

// RegionCount is the number of records kept for one region.
type RegionCount struct {
	Alias string
	Count int
}

// Result is the fold of every partition of a run.
type Result struct {
	Records    []model.RawListing
	Partitions []PartitionResult
	// Err is set when the run was cut short by cancellation or its deadline.
	// Partitions that never started are absent.
	Err error
}

// CountsByRegion returns the per-region record counts in harvest order.
func (r *Result) CountsByRegion() []RegionCount {
	out := make([]RegionCount, len(r.Partitions))
	for i, p := range r.Partitions {
		out[i] = RegionCount{Alias: p.Alias, Count: len(p.Records)}
	}
	return out
}

// Failed returns the partitions that stopped on an error.
func (r *Result) Failed() []PartitionResult {
	var out []PartitionResult
	for _, p := range r.Partitions {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Add folds one partition into the result.
func (r *Result) Add(p PartitionResult) {
	r.Partitions = append(r.Partitions, p)
	r.Records = append(r.Records, p.Records...)
}

// PageCount returns ceil(total / pageSize).
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// FetchPartition pages through one region. The page count comes from the
// first page's total; paging also stops at the first empty page. Any error
// ends the region, keeping what was collected so far.
func FetchPartition(ctx context.Context, src Source, region Region, pageSize int) PartitionResult {
	log := zap.L().With(
		zap.String("component", "harvest"),
		zap.String("region", region.Alias),
	)

	res := PartitionResult{Alias: region.Alias, FullName: region.Name}
	totalPages := 1

	for page := 1; page <= totalPages; page++ {
		p, err := src.ListPage(ctx, region, page)
		if err != nil {
			res.Err = err
			log.Warn("region aborted", zap.Int("page", page), zap.Error(err))
			break
		}

		if page == 1 {
			res.TotalCount = p.TotalCount
			totalPages = PageCount(p.TotalCount, pageSize)
			log.Info("region discovered",
				zap.Int("total_count", p.TotalCount),
				zap.Int("pages", totalPages),
			)
		}

		if len(p.Items) == 0 {
			break
		}
		res.Pages++

		for _, it := range p.Items {
			rec, ok := ToListing(region, it)
			if !ok {
				res.Dropped++
				log.Debug("skipping item without coordinates", zap.String("name", it.Name()))
				continue
			}
			res.Records = append(res.Records, rec)
		}

		if page%5 == 0 {
			log.Info("progress", zap.Int("page", page), zap.Int("pages", totalPages))
		}
	}

	return res
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithPageSize overrides the page size used to compute page counts.
func WithPageSize(n int) Option {
	return func(h *Harvester) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithDeadline bounds a whole run. Zero means no deadline.
func WithDeadline(d time.Duration) Option {
	return func(h *Harvester) { h.deadline = d }
}

// Harvester runs FetchPartition over a list of regions, one at a time.
type Harvester struct {
	src      Source
	pageSize int
	deadline time.Duration
}

// New creates a Harvester reading from src.
func New(src Source, opts ...Option) *Harvester {
	h := &Harvester{src: src, pageSize: DefaultPageSize}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Run harvests each region in order and folds the partitions into a Result.
// Regions never run concurrently.
func (h *Harvester) Run(ctx context.Context, regions []Region) *Result {
	log := zap.L().With(zap.String("component", "harvest"))

	if h.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deadline)
		defer cancel()
	}

	res := &Result{}
	start := time.Now()
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			res.Err = eris.Wrapf(err, "harvest: stopped before %s", region.Alias)
			break
		}

		p := FetchPartition(ctx, h.src, region, h.pageSize)
		res.Add(p)
		log.Info("region complete",
			zap.String("region", region.Alias),
			zap.Int("records", len(p.Records)),
			zap.Int("pages", p.Pages),
			zap.Int("dropped", p.Dropped),
			zap.Bool("partial", p.Err != nil),
		)
	}
	if res.Err == nil && ctx.Err() != nil {
		res.Err = eris.Wrap(ctx.Err(), "harvest: interrupted")
	}

	log.Info("harvest finished",
		zap.Int("records", len(res.Records)),
		zap.Int("regions", len(res.Partitions)),
		zap.Int("failed", len(res.Failed())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}
