// Package handlers exposes the event service over JSON and Server-Sent
// Events.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
	"donortrack/internal/eventsvc"
	"donortrack/internal/live"
	"donortrack/internal/middleware"
)

const maxBodyBytes = 1 << 20

type App struct {
	Service       *eventsvc.Service
	Hub           *live.Hub
	Logger        zerolog.Logger
	SessionSecret string
	SessionTTL    time.Duration
	Backend       string
	// KeepAlive is the interval of comment frames on idle streams.
	KeepAlive time.Duration
	now       func() time.Time
}

func NewApp(svc *eventsvc.Service, hub *live.Hub, logger zerolog.Logger, sessionSecret string, sessionTTL time.Duration) *App {
	return &App{
		Service:       svc,
		Hub:           hub,
		Logger:        logger,
		SessionSecret: sessionSecret,
		SessionTTL:    sessionTTL,
		KeepAlive:     15 * time.Second,
		now:           time.Now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// fail maps a service error onto the error envelope.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		a.error(w, status, code, "internal error")
		return
	}
	a.error(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case donorform.IsValidation(err),
		errors.Is(err, domain.ErrInvalidEvent),
		errors.Is(err, domain.ErrInvalidRole):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, donorform.ErrFieldNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrWrongPassword):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func access(r *http.Request) domain.Access {
	return middleware.AccessFromContext(r.Context())
}
