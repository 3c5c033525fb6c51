package handler

import (
	"context"
	"net/http"

	"github.com/pollenpaw/pollenpaw/internal/airquality"
	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
)

// AirQualityService returns the current air quality for a postal code.
type AirQualityService interface {
	Current(ctx context.Context, zipCode string) (*airquality.Reading, error)
}

// AirQualityHandler handles air quality endpoints.
type AirQualityHandler struct {
	service AirQualityService
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(service AirQualityService) *AirQualityHandler {
	return &AirQualityHandler{service: service}
}

// GetCurrent handles GET /v1/air-quality?zip=.
func (h *AirQualityHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	zip := r.URL.Query().Get("zip")
	if zip == "" {
		response.BadRequest(w, r, "zip is required", []models.FieldError{
			{Field: "zip", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	reading, err := h.service.Current(r.Context(), zip)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.AirQuality{
		ZipCode:           reading.ZipCode,
		Date:              reading.Date,
		AQI:               reading.AQI,
		Category:          reading.Category,
		DominantPollutant: reading.DominantPollutant,
		Provider:          reading.Provider,
		FetchedAt:         models.Timestamp(reading.FetchedAt),
	})
}
