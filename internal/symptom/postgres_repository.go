package symptom

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

// NewPostgresRepository creates a new PostgreSQL symptom repository.
func NewPostgresRepository(pool database.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Columns are scanned in this order by scanLog.
const selectLog = `
	SELECT
		id, pet_id, zip_code, to_char(log_date, 'YYYY-MM-DD'),
		eye_symptoms::int, fur_quality::int, skin_irritation::int, respiratory::int,
		notes, photo_url, created_at, updated_at
	FROM symptom_logs
`

// Get retrieves a log that belongs to the pet.
func (r *PostgresRepository) Get(ctx context.Context, petID, logID string) (*Log, error) {
	query := selectLog + ` WHERE id = $1 AND pet_id = $2`

	l, err := scanLog(r.pool.QueryRow(ctx, query, logID, petID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// ListByPet retrieves a pet's logs, newest first.
func (r *PostgresRepository) ListByPet(ctx context.Context, petID string) ([]*Log, error) {
	query := selectLog + ` WHERE pet_id = $1 ORDER BY log_date DESC, id ASC`

	rows, err := r.pool.Query(ctx, query, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	err := row.Scan(
		&l.ID,
		&l.PetID,
		&l.ZipCode,
		&l.LogDate,
		&l.Axes.EyeSymptoms,
		&l.Axes.FurQuality,
		&l.Axes.SkinIrritation,
		&l.Axes.Respiratory,
		&l.Notes,
		&l.PhotoURL,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create creates a new log.
func (r *PostgresRepository) Create(ctx context.Context, l *Log) error {
	query := `
		INSERT INTO symptom_logs (
			id, pet_id, zip_code, log_date,
			eye_symptoms, fur_quality, skin_irritation, respiratory,
			notes, photo_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		l.ID,
		l.PetID,
		l.ZipCode,
		l.LogDate,
		l.Axes.EyeSymptoms,
		l.Axes.FurQuality,
		l.Axes.SkinIrritation,
		l.Axes.Respiratory,
		l.Notes,
		l.PhotoURL,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

// Update updates an existing log.
func (r *PostgresRepository) Update(ctx context.Context, l *Log) error {
	query := `
		UPDATE symptom_logs SET
			log_date = $2::date,
			eye_symptoms = $3,
			fur_quality = $4,
			skin_irritation = $5,
			respiratory = $6,
			notes = $7,
			photo_url = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		l.ID,
		l.LogDate,
		l.Axes.EyeSymptoms,
		l.Axes.FurQuality,
		l.Axes.SkinIrritation,
		l.Axes.Respiratory,
		l.Notes,
		l.PhotoURL,
		l.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a log that belongs to the pet.
func (r *PostgresRepository) Delete(ctx context.Context, petID, logID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM symptom_logs WHERE id = $1 AND pet_id = $2`, logID, petID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Series returns the pet's logs joined with environmental data, ascending by date.
func (r *PostgresRepository) Series(ctx context.Context, petID string) ([]SeriesEntry, error) {
	query := `
		SELECT
			to_char(s.log_date, 'YYYY-MM-DD'),
			s.eye_symptoms::int, s.fur_quality::int, s.skin_irritation::int, s.respiratory::int,
			COALESCE(e.tree_pollen, 0)::float8,
			COALESCE(e.grass_pollen, 0)::float8,
			COALESCE(e.weed_pollen, 0)::float8,
			COALESCE(e.air_quality, 0)
		FROM symptom_logs s
		LEFT JOIN environmental_data e ON s.zip_code = e.zip_code AND s.log_date = e.date
		WHERE s.pet_id = $1
		ORDER BY s.log_date ASC, s.id ASC
	`

	rows, err := r.pool.Query(ctx, query, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []SeriesEntry
	for rows.Next() {
		var entry SeriesEntry
		err := rows.Scan(
			&entry.LogDate,
			&entry.Axes.EyeSymptoms,
			&entry.Axes.FurQuality,
			&entry.Axes.SkinIrritation,
			&entry.Axes.Respiratory,
			&entry.TreePollen,
			&entry.GrassPollen,
			&entry.WeedPollen,
			&entry.AirQuality,
		)
		if err != nil {
			return nil, err
		}
		series = append(series, entry)
	}
	return series, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
