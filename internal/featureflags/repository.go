package featureflags

import "context"

// Repository persists flag values.
type Repository interface {
	// GetAllFlags returns every stored flag keyed by flag key.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlags stores flags in one write. UpdatedAt is taken from each flag.
	SetFlags(ctx context.Context, flags []*Flag) error
}
