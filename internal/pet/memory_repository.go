package pet

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu   sync.RWMutex
	pets map[string]*Pet
}

// NewInMemoryRepository creates a new in-memory pet repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		pets: make(map[string]*Pet),
	}
}

// GetByOwnerAndID retrieves a pet by owner ID and pet ID.
func (r *InMemoryRepository) GetByOwnerAndID(_ context.Context, ownerID, petID string) (*Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pets[petID]
	if !ok || p.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	cpy := *p
	return &cpy, nil
}

// List retrieves all pets for an owner.
func (r *InMemoryRepository) List(_ context.Context, ownerID string) ([]*Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pets []*Pet
	for _, p := range r.pets {
		if p.OwnerID == ownerID {
			cpy := *p
			pets = append(pets, &cpy)
		}
	}

	sort.Slice(pets, func(i, j int) bool {
		if pets[i].CreatedAt.Equal(pets[j].CreatedAt) {
			return pets[i].ID < pets[j].ID
		}
		return pets[i].CreatedAt.Before(pets[j].CreatedAt)
	})
	return pets, nil
}

// Create creates a new pet.
func (r *InMemoryRepository) Create(_ context.Context, p *Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *p
	r.pets[p.ID] = &cpy
	return nil
}

// Update updates an existing pet.
func (r *InMemoryRepository) Update(_ context.Context, p *Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pets[p.ID]; !ok {
		return ErrNotFound
	}

	cpy := *p
	r.pets[p.ID] = &cpy
	return nil
}

// Delete deletes a pet by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pets[id]; !ok {
		return ErrNotFound
	}
	delete(r.pets, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
