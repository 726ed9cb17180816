package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/events"
	"gigscout-engine/internal/httpapi"
	"gigscout-engine/internal/poll"
	"gigscout-engine/internal/runlock"
	"gigscout-engine/internal/scrape"
)

func main() {
	var (
		defaultCfgPath = flag.String("config", filepath.Join("config", "config.yml"), "default config used to seed the user config")
		dataDirFlag    = flag.String("data", "", "data directory (overrides GIGSCOUT_DATA_DIR)")
		once           = flag.Bool("once", false, "run a single scan, print a summary and exit")
	)
	flag.Parse()

	// Engine data dir: flag, then env, then local folder.
	dataDir := *dataDirFlag
	if dataDir == "" {
		dataDir = os.Getenv("GIGSCOUT_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fatal(slog.Default(), "data dir", err)
	}

	userCfgPath, err := config.EnsureUserConfig(dataDir, *defaultCfgPath)
	if err != nil {
		fatal(slog.Default(), "config bootstrap failed", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return loadConfig(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		fatal(slog.Default(), "config load failed", err, "path", userCfgPath)
	}
	if err := config.Validate(cfg); err != nil {
		fatal(slog.Default(), "config invalid", err, "path", userCfgPath)
	}
	cfgVal.Store(cfg)

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStatus(ctx, cfg, dataDir)
	if err != nil {
		fatal(logger, "status backend", err, "backend", cfg.Status.Backend)
	}
	defer st.close()

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		fatal(logger, "notifier", err)
	}

	hub := events.NewHub()
	runner := &poll.Runner{
		Config:   func() config.Config { return cfgVal.Load().(config.Config) },
		Sources:  buildSources(cfg, logger),
		Detector: scrape.WhatlangDetector{},
		Notifier: notifier,
		Status:   st.Store,
		Lock:     runlock.New(filepath.Join(dataDir, "gigscout.lock")),
		Events:   hub,
		Logger:   logger,
	}

	if err := runner.RecoverStale(ctx); err != nil {
		logger.Warn("stale status check failed", "err", err)
	}

	if *once {
		res, err := runner.RunOnce(ctx, domain.TriggerCLI)
		printSummary(os.Stdout, res)
		if err != nil {
			fatal(logger, "run failed", err)
		}
		return
	}

	deps := httpapi.Deps{
		Runner:      runner,
		Status:      st.Store,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		BaseCtx:     ctx,
		Logger:      logger,
	}
	if st.Runs != nil {
		deps.Runs = st.Runs
	}

	mux := httpapi.NewMux(deps)
	srv := &http.Server{
		Handler:           httpapi.Wrap(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	token, err := shutdownToken(dataDir)
	if err != nil {
		fatal(logger, "shutdown token", err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(token, stop, logger))

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(logger, "listen", err, "addr", addr)
	}
	logger.Info("engine listening", "addr", "http://"+addr, "config", userCfgPath, "status_backend", cfg.Status.Backend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return poll.Schedule(gctx, runner, cfg)
	})

	err = g.Wait()
	// A manual run started over HTTP may still be writing its final status.
	runner.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		st.close()
		fatal(logger, "engine stopped", err)
	}
	logger.Info("engine stopped")
}
