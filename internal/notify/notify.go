package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Notifier delivers a run digest to someone.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

// Multi fans a digest out to every notifier and joins their errors. One
// failing transport does not stop the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, d Digest) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes the digest summary to the logger. It is the fallback when no
// transport is configured.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, d Digest) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "digest ready", "subject", d.Subject, "jobs", len(d.Postings))
	return nil
}
