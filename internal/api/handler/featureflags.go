package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
	"github.com/pollenpaw/pollenpaw/internal/featureflags"
)

// FlagService reads and updates feature flags.
type FlagService interface {
	GetAllFlags(ctx context.Context) map[string]*featureflags.Flag
	SetFlags(ctx context.Context, flags []*featureflags.Flag) error
}

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service FlagService
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service FlagService) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

// ListFeatureFlags handles GET /v1/feature-flags - all flags sorted by key.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, flagList(h.service.GetAllFlags(r.Context())))
}

// UpdateFeatureFlags handles PATCH /v1/feature-flags - boolean updates only.
func (h *FeatureFlagsHandler) UpdateFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var input featureflags.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if len(input.Updates) == 0 {
		response.BadRequest(w, r, "No fields to update", nil)
		return
	}

	var fieldErrors []models.FieldError
	flags := make([]*featureflags.Flag, 0, len(input.Updates))
	for _, u := range input.Updates {
		if !featureflags.IsKnown(u.Key) {
			fieldErrors = append(fieldErrors, models.FieldError{Field: u.Key, Message: "unknown feature flag", Code: "UNKNOWN_FLAG"})
			continue
		}
		value, ok := u.Value.(bool)
		if !ok {
			fieldErrors = append(fieldErrors, models.FieldError{Field: u.Key, Message: "must be a boolean", Code: "INVALID_TYPE"})
			continue
		}
		flags = append(flags, &featureflags.Flag{Key: u.Key, Value: value})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		writeError(w, r, err)
		return
	}

	logger := LoggerFromRequest(r)
	for _, f := range flags {
		logger.Info().
			Str("flag", f.Key).
			Interface("value", f.Value).
			Str("reason", input.Reason).
			Str("owner_id", ownerID(r)).
			Msg("feature flag updated")
	}

	response.JSON(w, r, http.StatusOK, flagList(h.service.GetAllFlags(r.Context())))
}

func flagList(flags map[string]*featureflags.Flag) featureflags.FlagList {
	items := make([]featureflags.Flag, 0, len(flags))
	for _, f := range flags {
		items = append(items, *f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return featureflags.FlagList{Items: items}
}
