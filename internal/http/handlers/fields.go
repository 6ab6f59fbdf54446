package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
)

type addFieldRequest struct {
	Label     string   `json:"label"`
	FieldType string   `json:"fieldType"`
	Required  bool     `json:"required"`
	Options   []string `json:"options"`
}

type updateFieldRequest struct {
	Label    *string `json:"label"`
	Required *bool   `json:"required"`
}

type moveFieldRequest struct {
	Direction string `json:"direction"`
}

type optionRequest struct {
	Value string `json:"value"`
}

func (a *App) ListFields(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.Service.Form(r.Context(), access(r), chi.URLParam(r, "eventID"))
	a.respondForm(w, r, http.StatusOK, cfg, err)
}

func (a *App) AddField(w http.ResponseWriter, r *http.Request) {
	var req addFieldRequest
	if !a.decode(w, r, &req) {
		return
	}
	cfg, err := a.Service.AddField(r.Context(), access(r), chi.URLParam(r, "eventID"), donorform.NewField{
		Label:     req.Label,
		FieldType: donorform.FieldType(req.FieldType),
		Required:  req.Required,
		Options:   req.Options,
	})
	a.respondForm(w, r, http.StatusCreated, cfg, err)
}

func (a *App) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req updateFieldRequest
	if !a.decode(w, r, &req) {
		return
	}
	cfg, err := a.Service.UpdateField(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "fieldID"),
		donorform.FieldPatch{Label: req.Label, Required: req.Required})
	a.respondForm(w, r, http.StatusOK, cfg, err)
}

func (a *App) DeleteField(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.Service.DeleteField(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "fieldID"))
	a.respondForm(w, r, http.StatusOK, cfg, err)
}

func (a *App) MoveField(w http.ResponseWriter, r *http.Request) {
	var req moveFieldRequest
	if !a.decode(w, r, &req) {
		return
	}
	// unknown directions are rejected by the editor, after the admin check
	dir, err := donorform.ParseDirection(req.Direction)
	if err != nil {
		dir = donorform.Direction(req.Direction)
	}
	cfg, err := a.Service.MoveField(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "fieldID"), dir)
	a.respondForm(w, r, http.StatusOK, cfg, err)
}

func (a *App) AddOption(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if !a.decode(w, r, &req) {
		return
	}
	cfg, err := a.Service.AddOption(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "fieldID"), req.Value)
	a.respondForm(w, r, http.StatusCreated, cfg, err)
}

func (a *App) EditOption(w http.ResponseWriter, r *http.Request) {
	index, ok := a.optionIndex(w, r)
	if !ok {
		return
	}
	var req optionRequest
	if !a.decode(w, r, &req) {
		return
	}
	cfg, err := a.Service.EditOption(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "fieldID"), index, req.Value)
	a.respondForm(w, r, http.StatusOK, cfg, err)
}

func (a *App) DeleteOption(w http.ResponseWriter, r *http.Request) {
	index, ok := a.optionIndex(w, r)
	if !ok {
		return
	}
	cfg, err := a.Service.DeleteOption(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "fieldID"), index)
	a.respondForm(w, r, http.StatusOK, cfg, err)
}

func (a *App) optionIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "option index must be an integer")
		return 0, false
	}
	return index, true
}

func (a *App) respondForm(w http.ResponseWriter, r *http.Request, status int, cfg *domain.FormConfig, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, status, toFormDTO(cfg))
}
