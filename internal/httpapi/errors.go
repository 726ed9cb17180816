package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIError is the JSON body of every non-2xx response.
type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope tagged with the request id. Server
// errors are also logged so the id in the response can be found in the log.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	reqID := RequestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		slog.Default().ErrorContext(r.Context(), "request failed",
			"request_id", reqID, "method", r.Method, "path", r.URL.Path,
			"status", status, "code", code, "err", message)
	}

	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = reqID
	WriteJSON(w, status, e)
}
