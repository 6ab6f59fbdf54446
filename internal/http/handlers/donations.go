package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
)

// donationRequest accepts the amount as a JSON number or a numeric string.
type donationRequest struct {
	DonorName    string           `json:"donorName"`
	Amount       any              `json:"amount"`
	CustomFields donorform.Values `json:"customFields"`
}

func (req donationRequest) input() domain.DonationInput {
	in := domain.DonationInput{DonorName: req.DonorName, CustomFields: req.CustomFields}
	if amount, err := donorform.ParseAmount(req.Amount); err == nil {
		in.Amount = &amount
	}
	return in
}

func (a *App) ListDonations(w http.ResponseWriter, r *http.Request) {
	items, err := a.Service.ListDonations(r.Context(), access(r), chi.URLParam(r, "eventID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDonationDTOs(items)})
}

func (a *App) GetDonation(w http.ResponseWriter, r *http.Request) {
	d, err := a.Service.GetDonation(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "donationID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationDTO(d))
}

func (a *App) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if !a.decode(w, r, &req) {
		return
	}
	d, err := a.Service.CreateDonation(r.Context(), access(r), chi.URLParam(r, "eventID"), req.input())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toDonationDTO(d))
}

func (a *App) UpdateDonation(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if !a.decode(w, r, &req) {
		return
	}
	d, err := a.Service.UpdateDonation(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "donationID"), req.input())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationDTO(d))
}

func (a *App) DeleteDonation(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.DeleteDonation(r.Context(), access(r), chi.URLParam(r, "eventID"), chi.URLParam(r, "donationID")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
