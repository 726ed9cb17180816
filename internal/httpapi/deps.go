package httpapi

import (
	"context"
	"log/slog"
	"sync/atomic"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/events"
	"gigscout-engine/internal/status"
	"gigscout-engine/internal/store"
)

// RunStarter is the part of poll.Runner the API drives.
type RunStarter interface {
	Start(ctx context.Context, trigger domain.Trigger) error
	Running() bool
}

// RunLister serves run history. Only the sqlite backend has one.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
}

type Deps struct {
	Runner RunStarter
	Status status.Store
	Runs   RunLister // optional

	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// BaseCtx outlives requests; manual runs are started under it.
	BaseCtx context.Context
	Logger  *slog.Logger
}
