package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"donortrack/internal/domain/donorform"
	"donortrack/internal/middleware"
)

type bucketDTO struct {
	Label            string  `json:"label"`
	Count            int     `json:"count"`
	Amount           float64 `json:"amount"`
	Percentage       float64 `json:"percentage"`
	AmountPercentage float64 `json:"amountPercentage"`
	Color            string  `json:"color"`
}

type fieldRefDTO struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	FieldType donorform.FieldType `json:"fieldType"`
}

type fieldInsightDTO struct {
	Field   fieldRefDTO `json:"field"`
	Buckets []bucketDTO `json:"buckets"`
}

type insightsDTO struct {
	TotalDonors int               `json:"totalDonors"`
	TotalAmount float64           `json:"totalAmount"`
	Fields      []fieldInsightDTO `json:"fields"`
}

type tableRowDTO struct {
	DonorName     string              `json:"donorName"`
	Amount        float64             `json:"amount"`
	AmountDisplay string              `json:"amountDisplay"`
	Cells         []string            `json:"cells"`
	Date          string              `json:"date"`
	CreatedAt     time.Time           `json:"createdAt"`
	Warnings      []donorform.Warning `json:"warnings,omitempty"`
}

type tableDTO struct {
	Locale  string        `json:"locale"`
	Headers []string      `json:"headers"`
	Rows    []tableRowDTO `json:"rows"`
}

type exportEventDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	TotalAmount float64 `json:"totalAmount"`
	TotalDonors int     `json:"totalDonors"`
}

type exportDonationDTO struct {
	DonorName    string           `json:"donorName"`
	Amount       float64          `json:"amount"`
	CustomFields donorform.Values `json:"customFields"`
	Date         time.Time        `json:"date"`
}

type exportDTO struct {
	Event        exportEventDTO      `json:"event"`
	CustomFields []fieldRefDTO       `json:"customFields"`
	Donations    []exportDonationDTO `json:"donations"`
	GeneratedAt  time.Time           `json:"generatedAt"`
}

func fieldRef(f donorform.Field) fieldRefDTO {
	return fieldRefDTO{ID: f.ID, Label: f.Label, FieldType: f.FieldType}
}

func (a *App) Insights(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Service.Insights(r.Context(), access(r), chi.URLParam(r, "eventID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := insightsDTO{
		TotalDonors: summary.TotalDonors,
		TotalAmount: summary.TotalAmount.InexactFloat64(),
		Fields:      make([]fieldInsightDTO, 0, len(summary.Fields)),
	}
	for _, fi := range summary.Fields {
		buckets := make([]bucketDTO, 0, len(fi.Buckets))
		for _, b := range fi.Buckets {
			buckets = append(buckets, bucketDTO{
				Label:            b.Label,
				Count:            b.Count,
				Amount:           b.Amount.InexactFloat64(),
				Percentage:       percent(b.Percentage),
				AmountPercentage: percent(b.AmountPercentage),
				Color:            b.Color,
			})
		}
		out.Fields = append(out.Fields, fieldInsightDTO{Field: fieldRef(fi.Field), Buckets: buckets})
	}
	a.json(w, http.StatusOK, out)
}

// headerAmountCSV names the plain decimal amount column of CSV tables.
const headerAmountCSV = "Amount (INR)"

// Table is the printable projection, formatted for the request locale.
// format=csv renders it as a spreadsheet download instead of JSON.
func (a *App) Table(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		a.error(w, http.StatusBadRequest, "bad_request", "format must be json or csv")
		return
	}
	table, err := a.Service.Table(r.Context(), access(r), eventID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	if format == "csv" {
		a.tableCSV(w, eventID, locale, table)
		return
	}
	out := tableDTO{Locale: locale, Headers: table.Headers, Rows: make([]tableRowDTO, 0, len(table.Rows))}
	for _, row := range table.Rows {
		out.Rows = append(out.Rows, tableRowDTO{
			DonorName:     row.DonorName,
			Amount:        row.Amount.InexactFloat64(),
			AmountDisplay: formatAmount(locale, row.Amount),
			Cells:         row.Cells,
			Date:          formatDate(locale, row.CreatedAt),
			CreatedAt:     row.CreatedAt,
			Warnings:      row.Warnings,
		})
	}
	a.json(w, http.StatusOK, out)
}

// tableCSV writes the amount as a bare two-digit decimal so spreadsheets
// read it as a number.
func (a *App) tableCSV(w http.ResponseWriter, eventID, locale string, table donorform.Table) {
	headers := make([]string, 0, len(table.Headers))
	for i, h := range table.Headers {
		if i == 1 && h == donorform.HeaderAmount {
			h = headerAmountCSV
		}
		headers = append(headers, h)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "event-"+eventID+"-donations.csv"))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(headers)
	for _, row := range table.Rows {
		record := make([]string, 0, len(headers))
		record = append(record, row.DonorName, row.Amount.StringFixed(2))
		record = append(record, row.Cells...)
		record = append(record, formatDate(locale, row.CreatedAt))
		if err := cw.Write(record); err != nil {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		a.Logger.Warn().Err(err).Str("event_id", eventID).Msg("table csv write failed")
	}
}

// Export is the raw dump with every stored custom value, including values
// of fields that were deleted.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	exp, err := a.Service.Export(r.Context(), access(r), eventID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := exportDTO{
		Event: exportEventDTO{
			Name:        exp.Name,
			Description: exp.Description,
			TotalAmount: exp.TotalAmount.InexactFloat64(),
			TotalDonors: exp.TotalDonors,
		},
		CustomFields: make([]fieldRefDTO, 0, len(exp.Fields)),
		Donations:    make([]exportDonationDTO, 0, len(exp.Donations)),
		GeneratedAt:  exp.GeneratedAt,
	}
	for _, f := range exp.Fields {
		out.CustomFields = append(out.CustomFields, fieldRef(f))
	}
	for _, d := range exp.Donations {
		values := d.CustomFields
		if values == nil {
			values = donorform.Values{}
		}
		out.Donations = append(out.Donations, exportDonationDTO{
			DonorName:    d.DonorName,
			Amount:       d.Amount.InexactFloat64(),
			CustomFields: values,
			Date:         d.CreatedAt,
		})
	}
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "event-"+eventID+".json"))
	}
	a.json(w, http.StatusOK, out)
}
