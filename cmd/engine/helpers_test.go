package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/notify"
	"gigscout-engine/internal/scrape/email"
)

func TestShutdownHandler(t *testing.T) {
	stopped := 0
	h := shutdownHandler("s3cret", func() { stopped++ }, newLogger(config.Default()))

	req := httptest.NewRequest(http.MethodPost, "/shutdown", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-Shutdown-Token", "s3cret")
	req.RemoteAddr = "10.0.0.8:5000"
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, stopped)

	req.RemoteAddr = "127.0.0.1:5000"
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stopped)
}

func TestShutdownTokenPersists(t *testing.T) {
	t.Setenv("GIGSCOUT_SHUTDOWN_TOKEN", "")
	dir := t.TempDir()

	first, err := shutdownToken(dir)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := shutdownToken(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := os.Stat(filepath.Join(dir, "shutdown.token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Setenv("GIGSCOUT_SHUTDOWN_TOKEN", "from-env")
	got, err := shutdownToken(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestBuildNotifier_FallsBackToLog(t *testing.T) {
	n, err := buildNotifier(config.Default(), nil)
	require.NoError(t, err)
	assert.IsType(t, notify.Log{}, n)

	cfg := config.Default()
	cfg.Email.Enabled = true
	cfg.Email.SMTP.Recipients = []string{"me@example.com"}
	n, err = buildNotifier(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, notify.Multi{}, n)
	assert.Len(t, n.(notify.Multi), 1)
}

func TestBuildSources(t *testing.T) {
	cfg := config.Default()
	cfg.Platforms = append(cfg.Platforms, config.Platform{Name: "email", Enabled: true}, config.Platform{Name: "nowhere"})
	cfg.Email.IMAP.Enabled = true

	reg := buildSources(cfg, newLogger(cfg))
	for _, name := range []domain.Platform{"upwork", "fiverr", "alljobs"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}
	src, ok := reg.Lookup(email.Platform)
	require.True(t, ok)
	assert.Equal(t, "email", src.Name())
	_, ok = reg.Lookup("nowhere")
	assert.False(t, ok)
}

func TestPrintSummary(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printSummary(&buf, domain.RunResult{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Fetched:    3,
		Accepted:   1,
		Unique:     1,
		Postings:   []domain.RawPosting{{Platform: "upwork", Title: "Hebrew translator needed", Link: "https://example.com/1"}},
	})
	out := buf.String()
	assert.Contains(t, out, "run run-1: fetched=3 accepted=1 unique=1 adapter_errors=0 duration=1.5s")
	assert.Contains(t, out, "[upwork] Hebrew translator needed")
}
