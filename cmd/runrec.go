package main

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/bluehands/internal/runlog"
)

// runRecorder writes a run_log entry. With a nil log every method is a
// no-op.
type runRecorder struct {
	ctx  context.Context
	log  *runlog.Log
	id   uuid.UUID
	done bool
}

// beginRun records the start of a run of kind. A failure to write the entry
// is logged and disables recording for the run.
func beginRun(ctx context.Context, l *runlog.Log, kind string) *runRecorder {
	rec := &runRecorder{ctx: ctx}
	id, err := l.Start(ctx, kind)
	if err != nil {
		zap.L().Warn("run log start failed", zap.String("kind", kind), zap.Error(err))
		return rec
	}
	rec.log = l
	rec.id = id
	return rec
}

// startRun opens a dedicated connection for the run log when a database is
// configured. The returned func releases it and must be deferred.
func startRun(ctx context.Context, kind string) (*runRecorder, func()) {
	if cfg.Store.DSN() == "" {
		return &runRecorder{ctx: ctx}, func() {}
	}

	pool, err := openPool(ctx, 1)
	if err != nil {
		zap.L().Warn("run log unavailable", zap.Error(err))
		return &runRecorder{ctx: ctx}, func() {}
	}
	return beginRun(ctx, runlog.New(pool), kind), pool.Close
}

func (r *runRecorder) complete(res *runlog.Result) {
	if r.log == nil || r.done {
		return
	}
	r.done = true
	if err := r.log.Complete(context.WithoutCancel(r.ctx), r.id, res); err != nil {
		zap.L().Warn("run log complete failed", zap.Error(err))
	}
}

func (r *runRecorder) fail(cause error) {
	if r.log == nil || r.done {
		return
	}
	r.done = true
	if err := r.log.Fail(context.WithoutCancel(r.ctx), r.id, cause.Error()); err != nil {
		zap.L().Warn("run log fail failed", zap.Error(err))
	}
}
