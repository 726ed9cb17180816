package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/notify"
	"gigscout-engine/internal/scrape/board"
	"gigscout-engine/internal/scrape/email"
	"gigscout-engine/internal/scrape/types"
	"gigscout-engine/internal/scrape/util"
	"gigscout-engine/internal/secrets"
	"gigscout-engine/internal/status"
	"gigscout-engine/internal/store"
)

func fatal(logger *slog.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append(args, "err", err)...)
	os.Exit(1)
}

// loadConfig reads the user config, overlays .env and the environment, then
// fills secrets from the keychain.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.LoadWithEnv(path, ".env")
	if err != nil {
		return cfg, err
	}
	secrets.Resolve(&cfg)
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

type statusBackend struct {
	Store status.Store
	Runs  *store.RunStore // sqlite only
	close func()
}

func openStatus(ctx context.Context, cfg config.Config, dataDir string) (statusBackend, error) {
	switch cfg.Status.Backend {
	case "redis":
		r, err := status.OpenRedis(ctx, cfg.Status.RedisURL, cfg.Status.RedisKey)
		if err != nil {
			return statusBackend{}, err
		}
		return statusBackend{Store: r, close: func() { _ = r.Client.Close() }}, nil
	case "sqlite":
		db, err := store.Open(filepath.Join(dataDir, "gigscout.db"))
		if err != nil {
			return statusBackend{}, err
		}
		rs := store.NewRunStore(db)
		return statusBackend{Store: rs, Runs: rs, close: func() { _ = db.Close() }}, nil
	default:
		return statusBackend{Store: status.NewMemory(), close: func() {}}, nil
	}
}

// buildSources registers a scraper for every configured platform, enabled or
// not, so that enabling one through /config works without a restart.
func buildSources(cfg config.Config, logger *slog.Logger) types.Registry {
	client := &http.Client{Timeout: cfg.Poll.RequestTimeout}
	limiter := util.NewHostLimiter(cfg.Poll.HostRPS, cfg.Poll.HostBurst)

	var boards []config.Platform
	for _, p := range cfg.Platforms {
		if domain.Platform(p.Name).Normalize() == email.Platform {
			continue
		}
		p.Enabled = true
		boards = append(boards, p)
	}
	scrapers, skipped := board.Scrapers(boards, client, limiter, logger)
	if len(skipped) > 0 {
		logger.Warn("platforms without a site definition", "platforms", skipped)
	}

	reg := types.NewRegistry()
	for _, s := range scrapers {
		reg.Add(s)
	}
	if cfg.Email.IMAP.Enabled {
		reg.Add(email.NewSource(cfg.Email.IMAP, logger))
	}
	return reg
}

func buildNotifier(cfg config.Config, logger *slog.Logger) (notify.Notifier, error) {
	var out notify.Multi
	if cfg.Email.Enabled {
		out = append(out, notify.NewEmail(cfg.Email.SMTP))
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		out = append(out, tg)
	}
	if len(out) == 0 {
		return notify.Log{Logger: logger}, nil
	}
	return out, nil
}

func printSummary(w io.Writer, res domain.RunResult) {
	fmt.Fprintf(w, "run %s: fetched=%d accepted=%d unique=%d adapter_errors=%d duration=%s\n",
		res.ID, res.Fetched, res.Accepted, res.Unique, len(res.AdapterErrors), res.Duration().Round(time.Millisecond))
	for _, p := range res.Postings {
		fmt.Fprintf(w, "  [%s] %s\n    %s\n", p.Platform, p.Title, p.Link)
	}
	if res.NotifyError != "" {
		fmt.Fprintf(w, "notify error: %s\n", res.NotifyError)
	}
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownToken returns GIGSCOUT_SHUTDOWN_TOKEN, or a token persisted in the
// data dir so a local supervisor can read it.
func shutdownToken(dataDir string) (string, error) {
	if t := strings.TrimSpace(os.Getenv("GIGSCOUT_SHUTDOWN_TOKEN")); t != "" {
		return t, nil
	}
	path := filepath.Join(dataDir, "shutdown.token")
	if b, err := os.ReadFile(path); err == nil && len(strings.TrimSpace(string(b))) > 0 {
		return strings.TrimSpace(string(b)), nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	t, err := randomToken(16)
	if err != nil {
		return "", err
	}
	return t, os.WriteFile(path, []byte(t+"\n"), 0o600)
}

func shutdownHandler(token string, stop func(), logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard (covers typical desktop usage)
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))
		logger.Info("shutdown requested", "remote", r.RemoteAddr)
		stop()
	}
}
