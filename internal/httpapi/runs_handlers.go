package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/status"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

type RunsHandler struct {
	Runs   RunLister
	Status status.Store
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		WriteError(w, r, http.StatusNotImplemented, "history_disabled", "run history needs status.backend=sqlite")
		return
	}
	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}
	runs, err := h.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	writeJSON(w, runs)
}

type lastPostings struct {
	RunID      string              `json:"run_id"`
	FinishedAt string              `json:"finished_at"`
	Postings   []domain.RawPosting `json:"postings"`
}

// Postings returns the deduplicated batch of the latest finished run.
func (h RunsHandler) Postings(w http.ResponseWriter, r *http.Request) {
	res, err := h.Status.LastResult(r.Context())
	if errors.Is(err, status.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "no_runs", "no run has finished yet")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "status_unavailable", err.Error())
		return
	}
	out := lastPostings{RunID: res.ID, Postings: res.Postings}
	if !res.FinishedAt.IsZero() {
		out.FinishedAt = res.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if out.Postings == nil {
		out.Postings = []domain.RawPosting{}
	}
	writeJSON(w, out)
}
