package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
	"github.com/pollenpaw/pollenpaw/internal/pet"
	"github.com/pollenpaw/pollenpaw/internal/photo"
)

// PhotoService issues presigned upload URLs.
type PhotoService interface {
	PresignUpload(ctx context.Context, ownerID, fileName, contentType, petID string) (*photo.Upload, error)
}

// PetLookup resolves an owner's pet.
type PetLookup interface {
	Lookup(ctx context.Context, ownerID, petID string) (*pet.Pet, error)
}

// PhotoHandler handles photo upload endpoints.
type PhotoHandler struct {
	service PhotoService
	pets    PetLookup
}

// NewPhotoHandler creates a new PhotoHandler. A nil service answers 503.
func NewPhotoHandler(service PhotoService, pets PetLookup) *PhotoHandler {
	return &PhotoHandler{service: service, pets: pets}
}

// CreateUpload handles POST /v1/photos/upload-url.
func (h *PhotoHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		response.ServiceUnavailable(w, r, "Photo storage is not configured")
		return
	}

	var input models.PhotoUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	owner := ownerID(r)
	petID := ""
	if input.PetID != nil && *input.PetID != "" {
		petID = *input.PetID
		if h.pets != nil {
			if _, err := h.pets.Lookup(r.Context(), owner, petID); err != nil {
				writeError(w, r, err)
				return
			}
		}
	}

	upload, err := h.service.PresignUpload(r.Context(), owner, input.FileName, input.ContentType, petID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.PhotoUpload{
		UploadURL: upload.UploadURL,
		PhotoURL:  upload.PhotoURL,
		Key:       upload.Key,
		ExpiresAt: models.Timestamp(upload.ExpiresAt),
	})
}
