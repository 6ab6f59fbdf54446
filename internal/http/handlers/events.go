package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"donortrack/internal/domain"
	"donortrack/internal/middleware"
)

type eventRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	AdminPassword   string `json:"adminPassword"`
	VisitorPassword string `json:"visitorPassword"`
}

func (req eventRequest) input() domain.EventInput {
	return domain.EventInput{
		Name:            req.Name,
		Description:     req.Description,
		AdminPassword:   req.AdminPassword,
		VisitorPassword: req.VisitorPassword,
	}
}

type sessionRequest struct {
	Role     string `json:"role"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	EventID   string      `json:"eventId"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// ListEvents is public and never includes passwords.
func (a *App) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.Service.ListEvents(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]eventDTO, 0, len(events))
	for i := range events {
		items = append(items, toEventDTO(&events[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !a.decode(w, r, &req) {
		return
	}
	ev, err := a.Service.CreateEvent(r.Context(), req.input())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toEventDTO(ev))
}

func (a *App) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := a.Service.GetEvent(r.Context(), access(r), chi.URLParam(r, "eventID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toEventDTO(ev))
}

func (a *App) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !a.decode(w, r, &req) {
		return
	}
	ev, err := a.Service.UpdateEvent(r.Context(), access(r), chi.URLParam(r, "eventID"), req.input())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toEventDTO(ev))
}

func (a *App) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.DeleteEvent(r.Context(), access(r), chi.URLParam(r, "eventID")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenSession exchanges a role password for a session token.
func (a *App) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !a.decode(w, r, &req) {
		return
	}
	granted, err := a.Service.OpenSession(r.Context(), chi.URLParam(r, "eventID"), req.Role, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	exp := a.now().Add(a.SessionTTL).UTC()
	token, err := middleware.SignSession(a.SessionSecret, middleware.SessionClaims{
		EventID: granted.EventID,
		Role:    granted.Role,
		Exp:     exp.Unix(),
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, sessionResponse{
		Token:     token,
		EventID:   granted.EventID,
		Role:      granted.Role,
		ExpiresAt: exp.Truncate(time.Second),
	})
}
