package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthHandler reports server liveness on /health.
type HealthHandler struct {
	version string
	started time.Time
}

// NewHealthHandler creates a health handler reporting the given version string.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now()}
}

// Routes returns the HTTP routes this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"/health"}
}

// ServeHTTP writes a JSON liveness payload.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "tunebridge",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// CallbackProbe answers /callback when no OAuth flow is in progress, echoing
// the received query parameters. Registering a redirect URI in the Spotify
// dashboard and hitting it in a browser confirms the address resolves to
// this process before the real authorization is attempted.
type CallbackProbe struct{}

// Routes returns the HTTP routes this handler serves.
func (p *CallbackProbe) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP echoes the callback parameters in plain text.
func (p *CallbackProbe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintln(w, "tunebridge callback probe reached")
	query := r.URL.Query()
	if len(query) == 0 {
		fmt.Fprintln(w, "no query parameters received")
		return
	}
	for _, key := range []string{"code", "state", "error", "error_description"} {
		if value := query.Get(key); value != "" {
			fmt.Fprintf(w, "%s=%s\n", key, value)
		}
	}
}
