package symptom

import "context"

// Repository defines the interface for symptom log persistence.
type Repository interface {
	// Get retrieves a log that belongs to the pet.
	Get(ctx context.Context, petID, logID string) (*Log, error)

	// ListByPet retrieves a pet's logs, newest first.
	ListByPet(ctx context.Context, petID string) ([]*Log, error)

	// Create creates a new log.
	Create(ctx context.Context, log *Log) error

	// Update updates an existing log.
	Update(ctx context.Context, log *Log) error

	// Delete deletes a log that belongs to the pet.
	Delete(ctx context.Context, petID, logID string) error

	// Series returns the pet's logs joined with environmental data, ascending by date.
	Series(ctx context.Context, petID string) ([]SeriesEntry, error)
}
