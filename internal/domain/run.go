package domain

import "time"

type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// AdapterError records one failed Fetch inside a run.
type AdapterError struct {
	Platform   Platform `json:"platform"`
	SearchTerm string   `json:"search_term"`
	Message    string   `json:"message"`
}

// RunResult is everything a single aggregation run produced. It is returned to
// the caller even when notification fails.
type RunResult struct {
	ID            string         `json:"id"`
	Trigger       Trigger        `json:"trigger"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Fetched       int            `json:"fetched"`
	Accepted      int            `json:"accepted"`
	Unique        int            `json:"unique"`
	Postings      []RawPosting   `json:"postings"`
	AdapterErrors []AdapterError `json:"adapter_errors,omitempty"`
	NotifyError   string         `json:"notify_error,omitempty"`
	Canceled      bool           `json:"canceled,omitempty"`
}

func (r RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// OK reports whether the run completed and its digest was delivered.
func (r RunResult) OK() bool {
	return !r.Canceled && r.NotifyError == ""
}
