package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each interval tick until ctx is
// done. Runs never overlap; a slow run delays the next tick.
func Every(ctx context.Context, interval time.Duration, name string, task Task, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	run(ctx, name, task, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run(ctx, name, task, logger)
		}
	}
}

// Daily runs task at each wall-clock time ("08:00") in loc until ctx is done.
func Daily(ctx context.Context, times []string, loc *time.Location, name string, task Task, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	clocks, err := ParseClocks(times)
	if err != nil {
		return err
	}
	if len(clocks) == 0 {
		<-ctx.Done()
		return nil
	}

	for {
		next := NextRun(time.Now(), clocks, loc)
		logger.Info("next scheduled run", "task", name, "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			run(ctx, name, task, logger)
		}
	}
}

func run(ctx context.Context, name string, task Task, logger *slog.Logger) {
	if err := task(ctx); err != nil {
		logger.Error("scheduled task failed", "task", name, "err", err)
	}
}

// Clock is a time of day.
type Clock struct {
	Hour, Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, fmt.Errorf("scheduler: %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 || len(h) > 2 {
		return Clock{}, fmt.Errorf("scheduler: %q: bad hour", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return Clock{}, fmt.Errorf("scheduler: %q: bad minute", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// ParseClocks parses and sorts a list of times, dropping duplicates.
func ParseClocks(times []string) ([]Clock, error) {
	seen := map[Clock]bool{}
	var out []Clock
	for _, s := range times {
		c, err := ParseClock(s)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hour*60+out[i].Minute < out[j].Hour*60+out[j].Minute
	})
	return out, nil
}

// NextRun returns the first instant strictly after now that matches one of
// clocks in loc. clocks must be sorted and non-empty.
func NextRun(now time.Time, clocks []Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	for day := 0; day < 2; day++ {
		y, m, d := local.AddDate(0, 0, day).Date()
		for _, c := range clocks {
			at := time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
			if at.After(now) {
				return at
			}
		}
	}
	// Unreachable for non-empty clocks; keep the loop total.
	y, m, d := local.AddDate(0, 0, 2).Date()
	return time.Date(y, m, d, clocks[0].Hour, clocks[0].Minute, 0, 0, loc)
}
