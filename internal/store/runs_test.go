package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/status"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "gigscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRunStore(db)
}

var _ status.Store = (*RunStore)(nil)

func TestRunStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	t0 := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

	snap, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, status.Initial(), snap)

	_, err = s.LastResult(ctx)
	assert.ErrorIs(t, err, status.ErrNotFound)

	require.NoError(t, s.Begin(ctx, "r1", domain.TriggerSchedule, t0))
	snap, err = s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Running)

	res := domain.RunResult{
		ID:            "r1",
		Trigger:       domain.TriggerSchedule,
		StartedAt:     t0,
		FinishedAt:    t0.Add(90 * time.Second),
		Fetched:       10,
		Accepted:      3,
		Unique:        2,
		Postings:      []domain.RawPosting{{Title: "piano session", Platform: "upwork", Link: "https://u/1"}, {Title: "תרגום", Platform: "xplace"}},
		AdapterErrors: []domain.AdapterError{{Platform: "fiverr", SearchTerm: "song", Message: "403"}},
	}
	require.NoError(t, s.Finish(ctx, res))

	snap, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Running)
	assert.Equal(t, 2, snap.LastCount)

	last, err := s.LastResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", last.ID)
	assert.True(t, last.StartedAt.Equal(t0))
	assert.Equal(t, res.Postings, last.Postings)
	assert.Equal(t, res.AdapterErrors, last.AdapterErrors)
}

func TestRunStore_AbandonStaleRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	t0 := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Begin(ctx, "r9", domain.TriggerManual, t0))
	changed, err := s.Abandon(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)

	snap, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Running)
	assert.Equal(t, "run abandoned", snap.LastError)

	changed, err = s.Abandon(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRunStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	t0 := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		start := t0.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Finish(ctx, domain.RunResult{
			ID: id, Trigger: domain.TriggerManual, StartedAt: start, FinishedAt: start.Add(time.Minute),
			Unique: i, NotifyError: map[bool]string{true: "boom"}[id == "b"],
		}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, "boom", runs[1].NotifyError)
	assert.Equal(t, 0, runs[1].AdapterErrors)
}

func TestOpen_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
