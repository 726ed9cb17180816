package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/events"
	"gigscout-engine/internal/notify"
	"gigscout-engine/internal/rank"
	"gigscout-engine/internal/runlock"
	"gigscout-engine/internal/scrape"
	"gigscout-engine/internal/scrape/types"
	"gigscout-engine/internal/scrape/util"
	"gigscout-engine/internal/status"
)

// ErrNotify wraps notifier failures returned by RunOnce. The result is still
// complete when it is returned.
var ErrNotify = errors.New("poll: notification failed")

// Runner drives one aggregation run: every category, enabled platform and
// search term, then filter, dedup, digest and notify.
type Runner struct {
	// Config is read once at the start of each run.
	Config   func() config.Config
	Sources  types.Registry
	Detector scrape.LanguageDetector
	Notifier notify.Notifier
	Status   status.Store
	Lock     *runlock.Lock
	Events   events.Publisher
	Logger   *slog.Logger

	Now   func() time.Time
	NewID func() string

	bg sync.WaitGroup // runs launched by Start
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// RunOnce performs a full run synchronously. It returns runlock.ErrBusy when
// another run is active.
func (r *Runner) RunOnce(ctx context.Context, trigger domain.Trigger) (domain.RunResult, error) {
	release, err := r.acquire()
	if err != nil {
		return domain.RunResult{}, err
	}
	defer release()
	return r.run(ctx, trigger)
}

// Start takes the run lock and performs the run in the background. The error
// is runlock.ErrBusy when a run is already active; the outcome of the run
// itself is reported through the status store and events.
func (r *Runner) Start(ctx context.Context, trigger domain.Trigger) error {
	release, err := r.acquire()
	if err != nil {
		return err
	}
	r.bg.Add(1)
	go func() {
		defer r.bg.Done()
		defer release()
		if _, err := r.run(ctx, trigger); err != nil {
			r.logger().Error("background run failed", "trigger", trigger, "err", err)
		}
	}()
	return nil
}

// Wait blocks until every run launched by Start has finished writing its
// status. Call it before closing the status store.
func (r *Runner) Wait() {
	r.bg.Wait()
}

// RecoverStale clears a Running flag that a crashed process left in a shared
// status store. It does nothing while the run lock is held, so a live run in
// another process sharing the lock file is never touched.
func (r *Runner) RecoverStale(ctx context.Context) error {
	if r.Status == nil {
		return nil
	}
	release, err := r.acquire()
	if errors.Is(err, runlock.ErrBusy) {
		return nil
	}
	if err != nil {
		return err
	}
	defer release()

	changed, err := r.Status.Abandon(ctx, r.now())
	if err != nil {
		return fmt.Errorf("poll: recover stale status: %w", err)
	}
	if changed {
		r.logger().WarnContext(ctx, "cleared status of a run that never finished")
	}
	return nil
}

// Running reports whether this process is in the middle of a run.
func (r *Runner) Running() bool {
	return r.Lock != nil && r.Lock.Running()
}

func (r *Runner) acquire() (func(), error) {
	if r.Lock == nil {
		return func() {}, nil
	}
	return r.Lock.TryAcquire()
}

func (r *Runner) run(ctx context.Context, trigger domain.Trigger) (domain.RunResult, error) {
	cfg := r.Config()
	loc := cfg.Location()
	logger := r.logger()

	rules, err := scrape.RulesFromConfig(cfg)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("poll: rules: %w", err)
	}
	filter := scrape.NewFilter(rules, r.Detector)

	newID := uuid.NewString
	if r.NewID != nil {
		newID = r.NewID
	}
	id := newID()
	res := domain.RunResult{
		ID:        id,
		Trigger:   trigger,
		StartedAt: r.now().In(loc),
	}
	logger = logger.With("run_id", id)

	// Status writes outlive a cancelled run so the dashboard sees the end.
	bg := context.WithoutCancel(ctx)
	if r.Status != nil {
		if err := r.Status.Begin(bg, id, trigger, res.StartedAt); err != nil {
			logger.Warn("status begin", "err", err)
		}
	}
	r.publish(events.TypeRunStarted, events.RunStarted{RunID: id, Trigger: string(trigger)})
	logger.InfoContext(ctx, "run started", "trigger", trigger)

	accepted := r.collect(ctx, logger, cfg, filter, &res)

	unique := scrape.Deduplicate(accepted)
	unique = rank.Tagger{Categories: cfg.Categories}.Apply(unique)
	res.Accepted = len(accepted)
	res.Unique = len(unique)
	res.Postings = unique

	var runErr error
	if err := ctx.Err(); err != nil {
		res.Canceled = true
		runErr = fmt.Errorf("poll: run canceled: %w", err)
	} else if r.Notifier != nil {
		digest := notify.BuildDigest(id, unique, r.now(), loc)
		if err := r.Notifier.Notify(ctx, digest); err != nil {
			res.NotifyError = err.Error()
			runErr = fmt.Errorf("%w: %w", ErrNotify, err)
			logger.ErrorContext(ctx, "notification failed", "err", err)
		}
	}

	res.FinishedAt = r.now().In(loc)
	r.finish(bg, logger, res)
	return res, runErr
}

// collect walks category → platform → term and returns every accepted
// posting in discovery order. It stops early when ctx is done.
func (r *Runner) collect(ctx context.Context, logger *slog.Logger, cfg config.Config, filter *scrape.Filter, res *domain.RunResult) []domain.RawPosting {
	var accepted []domain.RawPosting
	platformPacer := util.NewPacer(cfg.Poll.PlatformDelay)
	loc := cfg.Location()

	for _, cat := range cfg.Categories {
		for _, p := range cfg.EnabledPlatforms() {
			terms := cat.Terms
			if p.HebrewTerms {
				terms = cat.HebrewTerms
				if len(terms) == 0 {
					logger.WarnContext(ctx, "no hebrew terms for category; skipping platform", "category", cat.Name, "platform", p.Name)
					continue
				}
			}

			src, ok := r.Sources.Lookup(domain.Platform(p.Name))
			if !ok {
				logger.WarnContext(ctx, "no source for platform", "platform", p.Name)
				continue
			}

			if err := platformPacer.Wait(ctx); err != nil {
				return accepted
			}
			termPacer := util.NewPacer(cfg.Poll.TermDelay)

			for _, term := range terms {
				if err := termPacer.Wait(ctx); err != nil {
					return accepted
				}

				raw, err := r.fetch(ctx, cfg, src, term)
				res.Fetched += len(raw)
				if err != nil {
					if ctx.Err() != nil {
						return accepted
					}
					logger.ErrorContext(ctx, "adapter failed", "platform", p.Name, "term", term, "err", err)
					res.AdapterErrors = append(res.AdapterErrors, domain.AdapterError{
						Platform:   src.Platform(),
						SearchTerm: term,
						Message:    err.Error(),
					})
					continue
				}

				kept, stats := scrape.ProcessPostings(ctx, logger, filter, scrape.Origin{
					Platform:   src.Platform(),
					SearchTerm: term,
					Category:   cat.Name,
					At:         r.now().In(loc),
				}, raw)
				logger.DebugContext(ctx, "term processed",
					"platform", p.Name, "term", term, "seen", stats.Seen, "kept", stats.Kept)
				accepted = append(accepted, kept...)
			}
		}
	}
	return accepted
}

func (r *Runner) fetch(ctx context.Context, cfg config.Config, src types.Source, term string) ([]domain.RawPosting, error) {
	if cfg.Poll.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Poll.RequestTimeout)
		defer cancel()
	}
	return src.Fetch(ctx, term)
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, res domain.RunResult) {
	if r.Status != nil {
		if err := r.Status.Finish(ctx, res); err != nil {
			logger.Warn("status finish", "err", err)
		}
	}
	r.publish(events.TypeRunFinished, events.RunFinished{
		RunID:       res.ID,
		Unique:      res.Unique,
		Fetched:     res.Fetched,
		NotifyError: res.NotifyError,
		Canceled:    res.Canceled,
	})
	logger.Info("run finished",
		"fetched", res.Fetched,
		"accepted", res.Accepted,
		"unique", res.Unique,
		"adapter_errors", len(res.AdapterErrors),
		"canceled", res.Canceled,
		"duration", res.Duration().Round(time.Millisecond),
	)
}

func (r *Runner) publish(typ string, data any) {
	if r.Events != nil {
		r.Events.Publish(events.MakeEvent("", typ, 1, data))
	}
}
