package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/status"
)

// RunStore keeps run history and the dashboard snapshot in sqlite. It
// satisfies status.Store.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.Pool}
}

// tsLayout is fixed-width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunSummary is a history row without the postings.
type RunSummary struct {
	ID            string         `json:"id"`
	Trigger       domain.Trigger `json:"trigger"`
	StartedAt     string         `json:"started_at"`
	FinishedAt    string         `json:"finished_at"`
	Fetched       int            `json:"fetched"`
	Accepted      int            `json:"accepted"`
	Unique        int            `json:"unique"`
	AdapterErrors int            `json:"adapter_errors"`
	NotifyError   string         `json:"notify_error,omitempty"`
	Canceled      bool           `json:"canceled,omitempty"`
}

func (s *RunStore) Begin(ctx context.Context, runID string, trigger domain.Trigger, at time.Time) error {
	return s.updateSnapshot(ctx, func(snap *status.Snapshot) {
		status.ApplyBegin(snap, runID, trigger, at)
	})
}

func (s *RunStore) Finish(ctx context.Context, res domain.RunResult) error {
	adapterErrs, err := json.Marshal(nonNil(res.AdapterErrors))
	if err != nil {
		return fmt.Errorf("store: encode adapter errors: %w", err)
	}
	postings, err := json.Marshal(nonNil(res.Postings))
	if err != nil {
		return fmt.Errorf("store: encode postings: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, trigger, started_at, finished_at, fetched, accepted, unique_count, adapter_errors, notify_error, canceled, postings)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  finished_at = excluded.finished_at,
  fetched = excluded.fetched,
  accepted = excluded.accepted,
  unique_count = excluded.unique_count,
  adapter_errors = excluded.adapter_errors,
  notify_error = excluded.notify_error,
  canceled = excluded.canceled,
  postings = excluded.postings
`,
		res.ID, string(res.Trigger),
		res.StartedAt.UTC().Format(tsLayout), res.FinishedAt.UTC().Format(tsLayout),
		res.Fetched, res.Accepted, res.Unique,
		string(adapterErrs), res.NotifyError, boolToInt(res.Canceled), string(postings),
	); err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	return s.updateSnapshot(ctx, func(snap *status.Snapshot) {
		status.ApplyFinish(snap, res)
	})
}

func (s *RunStore) Abandon(ctx context.Context, at time.Time) (bool, error) {
	var changed bool
	err := s.updateSnapshot(ctx, func(snap *status.Snapshot) { changed = status.ApplyAbandon(snap, at) })
	return changed, err
}

func (s *RunStore) Get(ctx context.Context) (status.Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM run_status WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return status.Initial(), nil
	}
	if err != nil {
		return status.Snapshot{}, fmt.Errorf("store: read status: %w", err)
	}
	var snap status.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return status.Snapshot{}, fmt.Errorf("store: decode status: %w", err)
	}
	return snap, nil
}

func (s *RunStore) LastResult(ctx context.Context) (domain.RunResult, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, trigger, started_at, finished_at, fetched, accepted, unique_count, adapter_errors, notify_error, canceled, postings
FROM runs
ORDER BY started_at DESC
LIMIT 1`)

	var (
		res                        domain.RunResult
		trigger, started, finished string
		adapterErrs, postings      string
		canceled                   int
	)
	err := row.Scan(&res.ID, &trigger, &started, &finished, &res.Fetched, &res.Accepted, &res.Unique,
		&adapterErrs, &res.NotifyError, &canceled, &postings)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunResult{}, status.ErrNotFound
	}
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("store: read last run: %w", err)
	}

	res.Trigger = domain.Trigger(trigger)
	res.StartedAt, _ = time.Parse(tsLayout, started)
	res.FinishedAt, _ = time.Parse(tsLayout, finished)
	res.Canceled = canceled != 0
	if err := json.Unmarshal([]byte(adapterErrs), &res.AdapterErrors); err != nil {
		return domain.RunResult{}, fmt.Errorf("store: decode adapter errors: %w", err)
	}
	if err := json.Unmarshal([]byte(postings), &res.Postings); err != nil {
		return domain.RunResult{}, fmt.Errorf("store: decode postings: %w", err)
	}
	return res, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, trigger, started_at, finished_at, fetched, accepted, unique_count,
       json_array_length(adapter_errors), notify_error, canceled
FROM runs
ORDER BY started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunSummary, 0, limit)
	for rows.Next() {
		var (
			r        RunSummary
			trigger  string
			canceled int
		)
		if err := rows.Scan(&r.ID, &trigger, &r.StartedAt, &r.FinishedAt, &r.Fetched, &r.Accepted, &r.Unique,
			&r.AdapterErrors, &r.NotifyError, &canceled); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.Trigger = domain.Trigger(trigger)
		r.Canceled = canceled != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *RunStore) updateSnapshot(ctx context.Context, fn func(*status.Snapshot)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap := status.Initial()
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT snapshot FROM run_status WHERE id = 1`).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("store: read status: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return fmt.Errorf("store: decode status: %w", err)
		}
	}

	fn(&snap)
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode status: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO run_status (id, snapshot) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot`, string(b)); err != nil {
		return fmt.Errorf("store: write status: %w", err)
	}
	return tx.Commit()
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
