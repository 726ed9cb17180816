package poll

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/runlock"
	"gigscout-engine/internal/scheduler"
)

// Schedule runs the runner on the configured daily times and interval until
// ctx is done. Ticks that find a run in progress are skipped.
func Schedule(ctx context.Context, r *Runner, cfg config.Config) error {
	task := func(ctx context.Context) error {
		_, err := r.RunOnce(ctx, domain.TriggerSchedule)
		if errors.Is(err, runlock.ErrBusy) {
			r.logger().Info("scheduled run skipped; another run is active")
			return nil
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(cfg.Schedule.Daily) > 0 {
		g.Go(func() error {
			return scheduler.Daily(gctx, cfg.Schedule.Daily, cfg.Location(), "scan", task, r.Logger)
		})
	}
	if cfg.Schedule.Interval > 0 {
		g.Go(func() error {
			scheduler.Every(gctx, cfg.Schedule.Interval, "scan", task, r.Logger)
			return nil
		})
	}
	return g.Wait()
}
