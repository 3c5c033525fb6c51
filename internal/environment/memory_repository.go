package environment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository creates a new in-memory environment repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*Record)}
}

func recordKey(zipCode, date string) string {
	return zipCode + "|" + date
}

// Get returns a copy of the record.
func (r *InMemoryRepository) Get(_ context.Context, zipCode, date string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[recordKey(zipCode, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// ListRange returns copies of matching records, ascending by date.
func (r *InMemoryRepository) ListRange(_ context.Context, zipCode, from, to string) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Record
	for _, rec := range r.records {
		if rec.ZipCode != zipCode {
			continue
		}
		// YYYY-MM-DD compares lexically.
		if rec.Date < from || rec.Date > to {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// UpsertPollen writes pollen values.
func (r *InMemoryRepository) UpsertPollen(_ context.Context, zipCode, date string, values PollenValues) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.getOrCreate(zipCode, date)
	tree, grass, weed := values.Tree, values.Grass, values.Weed
	rec.TreePollen = &tree
	rec.GrassPollen = &grass
	rec.WeedPollen = &weed
	rec.PollenLevel = values.Level
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// UpsertAirQuality writes the air quality index.
func (r *InMemoryRepository) UpsertAirQuality(_ context.Context, zipCode, date string, aqi int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.getOrCreate(zipCode, date)
	rec.AirQuality = &aqi
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// ListZipCodes returns distinct postal codes, sorted.
func (r *InMemoryRepository) ListZipCodes(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var zips []string
	for _, rec := range r.records {
		if _, ok := seen[rec.ZipCode]; ok {
			continue
		}
		seen[rec.ZipCode] = struct{}{}
		zips = append(zips, rec.ZipCode)
	}
	sort.Strings(zips)
	return zips, nil
}

// getOrCreate must be called with the write lock held.
func (r *InMemoryRepository) getOrCreate(zipCode, date string) *Record {
	key := recordKey(zipCode, date)
	rec, ok := r.records[key]
	if !ok {
		rec = &Record{ZipCode: zipCode, Date: date}
		r.records[key] = rec
	}
	return rec
}

func copyRecord(rec *Record) *Record {
	c := *rec
	if rec.TreePollen != nil {
		v := *rec.TreePollen
		c.TreePollen = &v
	}
	if rec.GrassPollen != nil {
		v := *rec.GrassPollen
		c.GrassPollen = &v
	}
	if rec.WeedPollen != nil {
		v := *rec.WeedPollen
		c.WeedPollen = &v
	}
	if rec.AirQuality != nil {
		v := *rec.AirQuality
		c.AirQuality = &v
	}
	return &c
}

var _ Repository = (*InMemoryRepository)(nil)
