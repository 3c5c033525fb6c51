package symptom

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/events"
	"github.com/pollenpaw/pollenpaw/internal/featureflags"
	"github.com/pollenpaw/pollenpaw/internal/pet"
	"github.com/pollenpaw/pollenpaw/internal/pollen"
)

// MaxNotesLength bounds free-text notes.
const MaxNotesLength = 2000

// PetLookup resolves an owner's pet.
type PetLookup interface {
	Lookup(ctx context.Context, ownerID, petID string) (*pet.Pet, error)
}

// ServiceConfig holds configuration for the symptom service.
type ServiceConfig struct {
	// Repository stores symptom logs.
	Repository Repository

	// Pets scopes every operation to the owner's pet.
	Pets PetLookup

	// Publisher receives symptom_logged events (optional).
	Publisher events.Publisher

	// FeatureFlags is the feature flag service (optional).
	FeatureFlags *featureflags.Service

	// Clock supplies the default log date (optional, real clock by default).
	Clock clockwork.Clock

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service provides symptom log operations.
type Service struct {
	repo         Repository
	pets         PetLookup
	publisher    events.Publisher
	featureFlags *featureflags.Service
	clock        clockwork.Clock
	logger       zerolog.Logger
}

// NewService creates a new symptom service.
func NewService(cfg ServiceConfig) *Service {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		repo:         cfg.Repository,
		pets:         cfg.Pets,
		publisher:    publisher,
		featureFlags: cfg.FeatureFlags,
		clock:        clock,
		logger:       cfg.Logger,
	}
}

// Create logs symptoms for a pet. The log inherits the pet's postal code.
func (s *Service) Create(ctx context.Context, ownerID, petID string, input *models.SymptomLogCreateRequest) (*models.SymptomLog, error) {
	p, err := s.pets.Lookup(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	var fieldErrors []models.FieldError
	if input.LogDate != nil {
		fieldErrors = append(fieldErrors, validateDate(*input.LogDate)...)
	}
	fieldErrors = append(fieldErrors, validateAxes(input.EyeSymptoms, input.FurQuality, input.SkinIrritation, input.Respiratory)...)
	fieldErrors = append(fieldErrors, validateNotes(input.Notes)...)
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.clock.Now().UTC()
	logDate := pollen.DateOf(now)
	if input.LogDate != nil {
		logDate = *input.LogDate
	}

	l := &Log{
		ID:      "sym_" + uuid.New().String()[:22],
		PetID:   p.ID,
		ZipCode: p.ZipCode,
		LogDate: logDate,
		Axes: Axes{
			EyeSymptoms:    input.EyeSymptoms,
			FurQuality:     input.FurQuality,
			SkinIrritation: input.SkinIrritation,
			Respiratory:    input.Respiratory,
		},
		Notes:     input.Notes,
		PhotoURL:  input.PhotoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.publishLogged(ctx, l)

	result := toAPILog(l)
	return &result, nil
}

// Get retrieves a log for an owner's pet.
func (s *Service) Get(ctx context.Context, ownerID, petID, logID string) (*models.SymptomLog, error) {
	if _, err := s.pets.Lookup(ctx, ownerID, petID); err != nil {
		return nil, err
	}

	l, err := s.repo.Get(ctx, petID, logID)
	if err != nil {
		return nil, err
	}

	result := toAPILog(l)
	return &result, nil
}

// ListByPet retrieves an owner's pet's logs, newest first.
func (s *Service) ListByPet(ctx context.Context, ownerID, petID string) (*models.SymptomLogList, error) {
	if _, err := s.pets.Lookup(ctx, ownerID, petID); err != nil {
		return nil, err
	}

	logs, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	items := make([]models.SymptomLog, 0, len(logs))
	for _, l := range logs {
		items = append(items, toAPILog(l))
	}
	return &models.SymptomLogList{Items: items}, nil
}

// Update applies a partial update. At least one field must be present.
func (s *Service) Update(ctx context.Context, ownerID, petID, logID string, input *models.SymptomLogUpdateRequest) (*models.SymptomLog, error) {
	if input.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	if _, err := s.pets.Lookup(ctx, ownerID, petID); err != nil {
		return nil, err
	}

	l, err := s.repo.Get(ctx, petID, logID)
	if err != nil {
		return nil, err
	}

	var fieldErrors []models.FieldError
	if input.LogDate != nil {
		fieldErrors = append(fieldErrors, validateDate(*input.LogDate)...)
	}
	fieldErrors = append(fieldErrors, validateAxes(input.EyeSymptoms, input.FurQuality, input.SkinIrritation, input.Respiratory)...)
	fieldErrors = append(fieldErrors, validateNotes(input.Notes)...)
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.LogDate != nil {
		l.LogDate = *input.LogDate
	}
	if input.EyeSymptoms != nil {
		l.Axes.EyeSymptoms = input.EyeSymptoms
	}
	if input.FurQuality != nil {
		l.Axes.FurQuality = input.FurQuality
	}
	if input.SkinIrritation != nil {
		l.Axes.SkinIrritation = input.SkinIrritation
	}
	if input.Respiratory != nil {
		l.Axes.Respiratory = input.Respiratory
	}
	if input.Notes != nil {
		l.Notes = input.Notes
	}
	if input.PhotoURL != nil {
		l.PhotoURL = input.PhotoURL
	}
	l.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	result := toAPILog(l)
	return &result, nil
}

// Delete deletes a log for an owner's pet.
func (s *Service) Delete(ctx context.Context, ownerID, petID, logID string) error {
	if _, err := s.pets.Lookup(ctx, ownerID, petID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, petID, logID)
}

// Series returns the joined correlation series for a pet, ascending by date.
// Ownership is the caller's concern.
func (s *Service) Series(ctx context.Context, petID string) ([]SeriesEntry, error) {
	return s.repo.Series(ctx, petID)
}

func (s *Service) publishLogged(ctx context.Context, l *Log) {
	if s.featureFlags.IsEventPublishingDisabled(ctx) {
		return
	}

	err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeSymptomLogged,
		PetID:      l.PetID,
		ZipCode:    l.ZipCode,
		Date:       l.LogDate,
		OccurredAt: l.CreatedAt,
	})
	if err != nil {
		// Best effort; the log is already stored.
		s.logger.Warn().Err(err).
			Str("pet_id", l.PetID).
			Str("log_id", l.ID).
			Msg("failed to publish symptom_logged event")
	}
}

func validateDate(date string) []models.FieldError {
	if _, err := pollen.ParseDate(date); err != nil {
		return []models.FieldError{{Field: "logDate", Message: "must be a valid date in YYYY-MM-DD format"}}
	}
	return nil
}

func validateAxes(eye, fur, skin, respiratory *int) []models.FieldError {
	var errs []models.FieldError
	for _, axis := range []struct {
		field string
		value *int
	}{
		{"eyeSymptoms", eye},
		{"furQuality", fur},
		{"skinIrritation", skin},
		{"respiratory", respiratory},
	} {
		if axis.value != nil && (*axis.value < MinScore || *axis.value > MaxScore) {
			errs = append(errs, models.FieldError{Field: axis.field, Message: "must be between 1 and 5"})
		}
	}
	return errs
}

func validateNotes(notes *string) []models.FieldError {
	if notes != nil && len(*notes) > MaxNotesLength {
		return []models.FieldError{{Field: "notes", Message: "must be at most 2000 characters"}}
	}
	return nil
}

func toAPILog(l *Log) models.SymptomLog {
	out := models.SymptomLog{
		ID:             l.ID,
		PetID:          l.PetID,
		LogDate:        l.LogDate,
		EyeSymptoms:    l.Axes.EyeSymptoms,
		FurQuality:     l.Axes.FurQuality,
		SkinIrritation: l.Axes.SkinIrritation,
		Respiratory:    l.Axes.Respiratory,
		Severity:       l.Axes.Severity(),
		Notes:          l.Notes,
		PhotoURL:       l.PhotoURL,
		CreatedAt:      models.Timestamp(l.CreatedAt),
		UpdatedAt:      models.Timestamp(l.UpdatedAt),
	}
	if l.ZipCode != "" {
		zip := l.ZipCode
		out.ZipCode = &zip
	}
	return out
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

// Error joins the field messages, e.g. "eyeSymptoms must be between 1 and 5".
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}
