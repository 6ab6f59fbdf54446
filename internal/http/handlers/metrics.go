package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics serves the default prometheus registry.
func (a *App) Metrics() http.Handler {
	return promhttp.Handler()
}
