package pet

import "context"

// Repository defines the interface for pet persistence.
type Repository interface {
	// GetByOwnerAndID retrieves a pet by owner ID and pet ID.
	// Returns ErrNotFound if the pet doesn't exist or belongs to someone else.
	GetByOwnerAndID(ctx context.Context, ownerID, petID string) (*Pet, error)

	// List retrieves all pets for an owner, oldest first.
	List(ctx context.Context, ownerID string) ([]*Pet, error)

	// Create creates a new pet.
	Create(ctx context.Context, pet *Pet) error

	// Update updates an existing pet.
	Update(ctx context.Context, pet *Pet) error

	// Delete deletes a pet by ID.
	Delete(ctx context.Context, id string) error
}
