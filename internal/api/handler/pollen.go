package handler

import (
	"context"
	"net/http"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
	"github.com/pollenpaw/pollenpaw/internal/pollen"
)

// PollenService is the pollen lookup surface the handler needs.
type PollenService interface {
	GetForecast(ctx context.Context, zipCode string) (*pollen.Forecast, error)
	GetForDate(ctx context.Context, zipCode, date string) (*pollen.DailyForecast, error)
}

// PollenHandler handles pollen endpoints.
type PollenHandler struct {
	service PollenService
}

// NewPollenHandler creates a new PollenHandler.
func NewPollenHandler(service PollenService) *PollenHandler {
	return &PollenHandler{service: service}
}

// GetForecast handles GET /v1/pollen/forecast?zip= - multi-day forecast.
func (h *PollenHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	zip := r.URL.Query().Get("zip")
	if zip == "" {
		response.BadRequest(w, r, "zip is required", []models.FieldError{
			{Field: "zip", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	forecast, err := h.service.GetForecast(r.Context(), zip)
	if err != nil {
		writeError(w, r, err)
		return
	}

	days := make([]models.PollenDay, len(forecast.Days))
	for i := range forecast.Days {
		days[i] = toPollenDay(&forecast.Days[i])
	}

	response.JSON(w, r, http.StatusOK, models.PollenForecast{
		ZipCode:  forecast.ZipCode,
		Location: forecast.Location,
		Days:     days,
		Provider: forecast.Provider,
	})
}

// GetHistory handles GET /v1/pollen/history?zip=&date= - one day of pollen.
func (h *PollenHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	zip := query.Get("zip")
	date := query.Get("date")

	var fieldErrors []models.FieldError
	if zip == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "zip", Message: "is required", Code: "REQUIRED"})
	}
	if date == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "date", Message: "is required", Code: "REQUIRED"})
	} else if !pollen.IsValidDateFormat(date) {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "date", Message: "must be in YYYY-MM-DD format", Code: "INVALID_FORMAT"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	day, err := h.service.GetForDate(r.Context(), zip, date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toPollenDay(day))
}

func toPollenDay(d *pollen.DailyForecast) models.PollenDay {
	recommendations := d.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	return models.PollenDay{
		Date: d.Date,
		Pollen: models.PollenValues{
			Tree:  d.Extracted.Tree,
			Grass: d.Extracted.Grass,
			Weed:  d.Extracted.Weed,
		},
		Level:           string(d.Level),
		Recommendations: recommendations,
	}
}
