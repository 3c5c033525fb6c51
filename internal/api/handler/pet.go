package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
)

// PetService manages an owner's pets.
type PetService interface {
	List(ctx context.Context, ownerID string) (*models.PetList, error)
	Get(ctx context.Context, ownerID, petID string) (*models.Pet, error)
	Create(ctx context.Context, ownerID string, input *models.PetCreateRequest) (*models.Pet, error)
	Update(ctx context.Context, ownerID, petID string, input *models.PetUpdateRequest) (*models.Pet, error)
	Delete(ctx context.Context, ownerID, petID string) error
}

// PetHandler handles pet endpoints.
type PetHandler struct {
	service PetService
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(service PetService) *PetHandler {
	return &PetHandler{service: service}
}

// ListPets handles GET /v1/pets - list the caller's pets.
func (h *PetHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	pets, err := h.service.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, pets)
}

// CreatePet handles POST /v1/pets - register a pet.
func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	var input models.PetCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	p, err := h.service.Create(r.Context(), ownerID(r), &input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, r, "/v1/pets/"+p.ID, p)
}

// GetPet handles GET /v1/pets/{petId}.
func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), ownerID(r), chi.URLParam(r, "petId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// UpdatePet handles PATCH /v1/pets/{petId} - partial update.
func (h *PetHandler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	var input models.PetUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	p, err := h.service.Update(r.Context(), ownerID(r), chi.URLParam(r, "petId"), &input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// DeletePet handles DELETE /v1/pets/{petId}. Symptom logs go with the pet.
func (h *PetHandler) DeletePet(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), ownerID(r), chi.URLParam(r, "petId")); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}
