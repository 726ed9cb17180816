package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal  *atomic.Value // stores config.Config
	LoadCfg func() (config.Config, error)
}

type setSecretReq struct {
	Secret string `json:"secret"`
}

// Set stores a credential in the OS keychain. The path names the owner:
// /api/secrets/{smtp|imap|telegram}.
func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	kind := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/secrets/"), "/")

	cfg := h.CfgVal.Load().(config.Config)
	var account string
	switch kind {
	case "smtp":
		account = secrets.SMTPAccount(cfg)
	case "imap":
		account = secrets.IMAPAccount(cfg)
	case "telegram":
		account = secrets.TelegramAccount(cfg)
	default:
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret "+kind)
		return
	}

	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.Secret) == "" {
		WriteError(w, r, http.StatusBadRequest, "empty_secret", "secret is required")
		return
	}
	if err := secrets.Set(account, req.Secret); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keychain_failed", "failed to store secret: "+err.Error())
		return
	}

	if h.LoadCfg != nil {
		if fresh, err := h.LoadCfg(); err == nil {
			h.CfgVal.Store(fresh)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
