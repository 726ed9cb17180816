package httpapi

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	Runner RunStarter
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	if h.Runner != nil {
		body["running"] = h.Runner.Running()
	}
	writeJSON(w, body)
}
