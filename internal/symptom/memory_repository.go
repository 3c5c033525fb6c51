package symptom

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/pollenpaw/pollenpaw/internal/environment"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Series joins against the environment repository it was given.
type InMemoryRepository struct {
	mu          sync.RWMutex
	logs        map[string]*Log
	environment environment.Repository
}

// NewInMemoryRepository creates a new in-memory symptom repository.
// A nil environment repository yields zero pollen in every series entry.
func NewInMemoryRepository(env environment.Repository) *InMemoryRepository {
	return &InMemoryRepository{
		logs:        make(map[string]*Log),
		environment: env,
	}
}

// Get retrieves a log that belongs to the pet.
func (r *InMemoryRepository) Get(_ context.Context, petID, logID string) (*Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.logs[logID]
	if !ok || l.PetID != petID {
		return nil, ErrNotFound
	}
	return copyLog(l), nil
}

// ListByPet retrieves a pet's logs, newest first.
func (r *InMemoryRepository) ListByPet(_ context.Context, petID string) ([]*Log, error) {
	logs := r.byPet(petID)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].LogDate > logs[j].LogDate })
	return logs, nil
}

// Create creates a new log.
func (r *InMemoryRepository) Create(_ context.Context, l *Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs[l.ID] = copyLog(l)
	return nil
}

// Update updates an existing log.
func (r *InMemoryRepository) Update(_ context.Context, l *Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.logs[l.ID]; !ok {
		return ErrNotFound
	}
	r.logs[l.ID] = copyLog(l)
	return nil
}

// Delete deletes a log that belongs to the pet.
func (r *InMemoryRepository) Delete(_ context.Context, petID, logID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.logs[logID]
	if !ok || l.PetID != petID {
		return ErrNotFound
	}
	delete(r.logs, logID)
	return nil
}

// Series returns the pet's logs joined with environmental data, ascending by date.
func (r *InMemoryRepository) Series(ctx context.Context, petID string) ([]SeriesEntry, error) {
	logs := r.byPet(petID)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].LogDate < logs[j].LogDate })

	series := make([]SeriesEntry, 0, len(logs))
	for _, l := range logs {
		entry := SeriesEntry{LogDate: l.LogDate, Axes: l.Axes}

		if r.environment != nil {
			rec, err := r.environment.Get(ctx, l.ZipCode, l.LogDate)
			switch {
			case errors.Is(err, environment.ErrNotFound):
			case err != nil:
				return nil, err
			default:
				entry.TreePollen, entry.GrassPollen, entry.WeedPollen = rec.PollenOrZero()
				if rec.AirQuality != nil {
					entry.AirQuality = *rec.AirQuality
				}
			}
		}

		series = append(series, entry)
	}
	return series, nil
}

func (r *InMemoryRepository) byPet(petID string) []*Log {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var logs []*Log
	for _, l := range r.logs {
		if l.PetID == petID {
			logs = append(logs, copyLog(l))
		}
	}
	// Map iteration order is random; break date ties by ID.
	sort.Slice(logs, func(i, j int) bool { return logs[i].ID < logs[j].ID })
	return logs
}

func copyLog(l *Log) *Log {
	c := *l
	c.Axes = Axes{
		EyeSymptoms:    copyInt(l.Axes.EyeSymptoms),
		FurQuality:     copyInt(l.Axes.FurQuality),
		SkinIrritation: copyInt(l.Axes.SkinIrritation),
		Respiratory:    copyInt(l.Axes.Respiratory),
	}
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
