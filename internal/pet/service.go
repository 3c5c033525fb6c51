package pet

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength  = 80
	MaxBreedLength = 80
	MaxAge         = 40
	MaxWeight      = 200
)

// Service provides pet operations scoped to an owner.
type Service struct {
	repo Repository
}

// NewService creates a new pet service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all pets for an owner.
func (s *Service) List(ctx context.Context, ownerID string) (*models.PetList, error) {
	pets, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Pet, 0, len(pets))
	for _, p := range pets {
		items = append(items, toAPIPet(p))
	}
	return &models.PetList{Items: items}, nil
}

// Get retrieves a pet by ID for an owner.
func (s *Service) Get(ctx context.Context, ownerID, petID string) (*models.Pet, error) {
	p, err := s.repo.GetByOwnerAndID(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	result := toAPIPet(p)
	return &result, nil
}

// Lookup returns the domain pet, for services that need its postal code.
func (s *Service) Lookup(ctx context.Context, ownerID, petID string) (*Pet, error) {
	return s.repo.GetByOwnerAndID(ctx, ownerID, petID)
}

// Create creates a new pet for an owner.
func (s *Service) Create(ctx context.Context, ownerID string, input *models.PetCreateRequest) (*models.Pet, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now().UTC()
	p := &Pet{
		ID:        "pet_" + uuid.New().String()[:22],
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(input.Name),
		Species:   string(input.Species),
		Breed:     input.Breed,
		Age:       input.Age,
		Weight:    input.Weight,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.ZipCode != nil {
		p.ZipCode = strings.TrimSpace(*input.ZipCode)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	result := toAPIPet(p)
	return &result, nil
}

// Update applies a partial update to a pet.
func (s *Service) Update(ctx context.Context, ownerID, petID string, input *models.PetUpdateRequest) (*models.Pet, error) {
	p, err := s.repo.GetByOwnerAndID(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Species != nil {
		p.Species = string(*input.Species)
	}
	if input.Breed != nil {
		p.Breed = input.Breed
	}
	if input.Age != nil {
		p.Age = input.Age
	}
	if input.Weight != nil {
		p.Weight = input.Weight
	}
	if input.ZipCode != nil {
		p.ZipCode = strings.TrimSpace(*input.ZipCode)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	result := toAPIPet(p)
	return &result, nil
}

// Delete deletes a pet for an owner.
func (s *Service) Delete(ctx context.Context, ownerID, petID string) error {
	// Verify ownership
	if _, err := s.repo.GetByOwnerAndID(ctx, ownerID, petID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, petID)
}

func validateCreateInput(input *models.PetCreateRequest) []models.FieldError {
	var errs []models.FieldError

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 80 characters"})
	}

	if input.Species == "" {
		errs = append(errs, models.FieldError{Field: "species", Message: "is required"})
	} else {
		errs = append(errs, validateSpecies(input.Species)...)
	}

	errs = append(errs, validateOptional(input.Breed, input.Age, input.Weight)...)
	return errs
}

func validateUpdateInput(input *models.PetUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			errs = append(errs, models.FieldError{Field: "name", Message: "cannot be empty"})
		} else if len(name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 80 characters"})
		}
	}

	if input.Species != nil {
		errs = append(errs, validateSpecies(*input.Species)...)
	}

	errs = append(errs, validateOptional(input.Breed, input.Age, input.Weight)...)
	return errs
}

func validateSpecies(species models.Species) []models.FieldError {
	if species != models.SpeciesDog && species != models.SpeciesCat {
		return []models.FieldError{{Field: "species", Message: `must be either "dog" or "cat"`}}
	}
	return nil
}

func validateOptional(breed *string, age *int, weight *float64) []models.FieldError {
	var errs []models.FieldError

	if breed != nil && len(*breed) > MaxBreedLength {
		errs = append(errs, models.FieldError{Field: "breed", Message: "must be at most 80 characters"})
	}
	if age != nil && (*age < 0 || *age > MaxAge) {
		errs = append(errs, models.FieldError{Field: "age", Message: "must be between 0 and 40"})
	}
	if weight != nil && (*weight <= 0 || *weight > MaxWeight) {
		errs = append(errs, models.FieldError{Field: "weight", Message: "must be greater than 0 and at most 200"})
	}
	return errs
}

func toAPIPet(p *Pet) models.Pet {
	out := models.Pet{
		ID:        p.ID,
		Name:      p.Name,
		Species:   models.Species(p.Species),
		Breed:     p.Breed,
		Age:       p.Age,
		Weight:    p.Weight,
		CreatedAt: models.Timestamp(p.CreatedAt),
		UpdatedAt: models.Timestamp(p.UpdatedAt),
	}
	if p.ZipCode != "" {
		zip := p.ZipCode
		out.ZipCode = &zip
	}
	return out
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
