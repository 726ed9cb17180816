package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/runlock"
	"gigscout-engine/internal/status"
)

type ScrapeHandler struct {
	Runner  RunStarter
	Store   status.Store
	BaseCtx context.Context
	Logger  *slog.Logger
}

type runAccepted struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Run starts a manual run in the background. A second trigger while one is
// in flight is rejected instead of queued.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := h.BaseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	err := h.Runner.Start(ctx, domain.TriggerManual)
	switch {
	case errors.Is(err, runlock.ErrBusy):
		WriteError(w, r, http.StatusConflict, "run_in_progress", "a scan is already running")
		return
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "run_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusAccepted, runAccepted{
		OK:      true,
		Message: "Manual scan initiated in background. Check status for updates.",
	})
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Get(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "status read failed",
			"request_id", RequestIDFrom(r.Context()), "err", err)
		WriteError(w, r, http.StatusInternalServerError, "status_unavailable", "status unavailable")
		return
	}
	writeJSON(w, snap)
}

func (h ScrapeHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
