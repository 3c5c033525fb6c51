package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
)

// SymptomService manages symptom logs for an owner's pets.
type SymptomService interface {
	Create(ctx context.Context, ownerID, petID string, input *models.SymptomLogCreateRequest) (*models.SymptomLog, error)
	Get(ctx context.Context, ownerID, petID, logID string) (*models.SymptomLog, error)
	ListByPet(ctx context.Context, ownerID, petID string) (*models.SymptomLogList, error)
	Update(ctx context.Context, ownerID, petID, logID string, input *models.SymptomLogUpdateRequest) (*models.SymptomLog, error)
	Delete(ctx context.Context, ownerID, petID, logID string) error
}

// SymptomHandler handles symptom log endpoints.
type SymptomHandler struct {
	service SymptomService
}

// NewSymptomHandler creates a new SymptomHandler.
func NewSymptomHandler(service SymptomService) *SymptomHandler {
	return &SymptomHandler{service: service}
}

// ListSymptoms handles GET /v1/pets/{petId}/symptoms - newest first.
func (h *SymptomHandler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.ListByPet(r.Context(), ownerID(r), chi.URLParam(r, "petId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, logs)
}

// CreateSymptom handles POST /v1/pets/{petId}/symptoms.
func (h *SymptomHandler) CreateSymptom(w http.ResponseWriter, r *http.Request) {
	var input models.SymptomLogCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	petID := chi.URLParam(r, "petId")
	l, err := h.service.Create(r.Context(), ownerID(r), petID, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/pets/%s/symptoms/%s", petID, l.ID)
	response.Created(w, r, location, l)
}

// GetSymptom handles GET /v1/pets/{petId}/symptoms/{logId}.
func (h *SymptomHandler) GetSymptom(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Get(r.Context(), ownerID(r), chi.URLParam(r, "petId"), chi.URLParam(r, "logId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, l)
}

// UpdateSymptom handles PATCH /v1/pets/{petId}/symptoms/{logId}.
func (h *SymptomHandler) UpdateSymptom(w http.ResponseWriter, r *http.Request) {
	var input models.SymptomLogUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	l, err := h.service.Update(r.Context(), ownerID(r), chi.URLParam(r, "petId"), chi.URLParam(r, "logId"), &input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, l)
}

// DeleteSymptom handles DELETE /v1/pets/{petId}/symptoms/{logId}.
func (h *SymptomHandler) DeleteSymptom(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), ownerID(r), chi.URLParam(r, "petId"), chi.URLParam(r, "logId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}
