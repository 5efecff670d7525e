package cronrunner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add schedules a named job. A panicking job is logged and skipped until its
// next tick; it never takes the scheduler down.
func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		ctx := context.Background()
		if r != nil && r.baseCtx != nil {
			ctx = r.baseCtx
		}
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil && r != nil && r.logger != nil {
				r.logger.Error("cron job panicked",
					zap.String("job", name),
					zap.Any("panic", rec),
				)
			}
		}()
		job(ctx)
		if r != nil && r.logger != nil {
			r.logger.Debug("cron job done",
				zap.String("job", name),
				zap.Duration("took", time.Since(start)),
			)
		}
	})
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started")
	}
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}
