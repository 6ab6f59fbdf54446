package handlers

import (
	"net/http"
)

// Health reports liveness and the configured store backend.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "backend": a.Backend})
}
