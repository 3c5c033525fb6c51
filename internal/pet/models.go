// Package pet manages the pets whose symptoms are tracked.
package pet

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrNotFound = errors.New("pet not found")
)

// Pet is a tracked animal owned by one user.
type Pet struct {
	ID        string
	OwnerID   string
	Name      string
	Species   string
	Breed     *string
	Age       *int
	Weight    *float64
	ZipCode   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
