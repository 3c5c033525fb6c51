package analysis

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pollenpaw/pollenpaw/internal/pet"
	"github.com/pollenpaw/pollenpaw/internal/symptom"
	"github.com/pollenpaw/pollenpaw/internal/telemetry"
)

// DefaultPetName stands in when the pet has no usable name.
const DefaultPetName = "Your pet"

// PetLookup resolves an owner's pet.
type PetLookup interface {
	Lookup(ctx context.Context, ownerID, petID string) (*pet.Pet, error)
}

// SeriesSource returns a pet's joined symptom/pollen series.
type SeriesSource interface {
	Series(ctx context.Context, petID string) ([]symptom.SeriesEntry, error)
}

// ServiceConfig holds configuration for the analysis service.
type ServiceConfig struct {
	Pets   PetLookup
	Series SeriesSource
	Logger zerolog.Logger
}

// Service runs correlation analysis for an owner's pets.
type Service struct {
	pets   PetLookup
	series SeriesSource
	logger zerolog.Logger
}

// NewService creates a new analysis service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		pets:   cfg.Pets,
		series: cfg.Series,
		logger: cfg.Logger,
	}
}

// Correlation analyses one pet. Returns pet.ErrNotFound when the owner has
// no such pet.
func (s *Service) Correlation(ctx context.Context, ownerID, petID string) (_ *Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "analysis.correlation", attribute.String("pet_id", petID))
	defer func() { telemetry.EndSpan(span, err) }()

	p, err := s.pets.Lookup(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	petName := p.Name
	if petName == "" {
		petName = DefaultPetName
	}

	entries, err := s.series.Series(ctx, petID)
	if err != nil {
		return nil, err
	}

	result := Correlate(petName, FromEntries(entries))

	event := s.logger.Debug().
		Str("pet_id", petID).
		Str("status", string(result.Status)).
		Int("days_logged", result.DaysLogged)
	if result.Correlations != nil {
		event = event.
			Float64("tree_corr", result.Correlations.Tree).
			Float64("grass_corr", result.Correlations.Grass).
			Float64("weed_corr", result.Correlations.Weed).
			Str("top_trigger", result.Correlations.TopTrigger.Key())
	}
	event.Msg("correlation computed")
	span.SetAttributes(attribute.String("status", string(result.Status)))

	return &result, nil
}

// Export writes a pet's analysis as an XLSX workbook.
func (s *Service) Export(ctx context.Context, ownerID, petID string, w io.Writer) error {
	result, err := s.Correlation(ctx, ownerID, petID)
	if err != nil {
		return err
	}
	return WriteXLSX(w, *result)
}
