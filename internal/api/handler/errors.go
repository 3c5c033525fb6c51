package handler

import (
	"errors"
	"net/http"

	"github.com/pollenpaw/pollenpaw/internal/airquality"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
	"github.com/pollenpaw/pollenpaw/internal/geocode"
	"github.com/pollenpaw/pollenpaw/internal/pet"
	"github.com/pollenpaw/pollenpaw/internal/photo"
	"github.com/pollenpaw/pollenpaw/internal/pollen"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
	"github.com/pollenpaw/pollenpaw/internal/symptom"
)

// writeError maps a service error to a Problem response.
// Unknown errors are logged and returned as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var petValidation *pet.ValidationError
	var symptomValidation *symptom.ValidationError

	switch {
	case errors.As(err, &petValidation):
		response.BadRequest(w, r, "validation failed", petValidation.Errors)
	case errors.As(err, &symptomValidation):
		response.BadRequest(w, r, "validation failed", symptomValidation.Errors)
	case errors.Is(err, symptom.ErrNoFieldsToUpdate):
		response.BadRequest(w, r, "No fields to update", nil)

	case errors.Is(err, pet.ErrNotFound):
		response.NotFound(w, r, "Pet not found")
	case errors.Is(err, symptom.ErrNotFound):
		response.NotFound(w, r, "Symptom log not found")

	case errors.Is(err, pollen.ErrInvalidZipCode), errors.Is(err, airquality.ErrInvalidZipCode):
		response.BadRequest(w, r, "zip is required", nil)
	case errors.Is(err, pollen.ErrInvalidDate):
		response.BadRequest(w, r, "date must be a valid date in YYYY-MM-DD format", nil)
	case errors.Is(err, geocode.ErrNotFound):
		response.NotFound(w, r, "Zip code not found")
	case errors.Is(err, pollen.ErrNoData), errors.Is(err, airquality.ErrNoData):
		response.NotFound(w, r, "No data available for this date")

	case errors.Is(err, photo.ErrUnsupportedType), errors.Is(err, photo.ErrMissingFileName):
		response.BadRequest(w, r, err.Error(), nil)

	case errors.Is(err, airquality.ErrDisabled):
		response.ServiceUnavailable(w, r, "Air quality lookups are temporarily disabled")
	case errors.Is(err, pollen.ErrProviderUnavailable),
		errors.Is(err, airquality.ErrProviderUnavailable),
		errors.Is(err, geocode.ErrProviderUnavailable),
		errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "Upstream data provider is unavailable")

	default:
		logger := LoggerFromRequest(r)
		logger.Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "internal server error")
	}
}
