package pet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/pollenpaw/pollenpaw/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool database.DBPool
}

// NewPostgresRepository creates a new PostgreSQL pet repository.
func NewPostgresRepository(pool database.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Columns are scanned in this order by scanPet.
const selectPet = `
	SELECT
		id, owner_id, name, species,
		breed, age, weight::float8, zip_code,
		created_at, updated_at
	FROM pets
`

// GetByOwnerAndID retrieves a pet by owner ID and pet ID.
func (r *PostgresRepository) GetByOwnerAndID(ctx context.Context, ownerID, petID string) (*Pet, error) {
	query := selectPet + ` WHERE id = $1 AND owner_id = $2`

	p, err := scanPet(r.pool.QueryRow(ctx, query, petID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all pets for an owner, oldest first.
func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]*Pet, error) {
	query := selectPet + ` WHERE owner_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pets []*Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

func scanPet(row pgx.Row) (*Pet, error) {
	var p Pet
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Age,
		&p.Weight,
		&p.ZipCode,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new pet.
func (r *PostgresRepository) Create(ctx context.Context, p *Pet) error {
	query := `
		INSERT INTO pets (
			id, owner_id, name, species,
			breed, age, weight, zip_code,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.OwnerID,
		p.Name,
		p.Species,
		p.Breed,
		p.Age,
		p.Weight,
		p.ZipCode,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update updates an existing pet.
func (r *PostgresRepository) Update(ctx context.Context, p *Pet) error {
	query := `
		UPDATE pets SET
			name = $2,
			species = $3,
			breed = $4,
			age = $5,
			weight = $6,
			zip_code = $7,
			updated_at = $8
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Age,
		p.Weight,
		p.ZipCode,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a pet by ID. Symptom logs cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
