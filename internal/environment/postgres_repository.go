package environment

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

// NewPostgresRepository creates a new PostgreSQL environment repository.
func NewPostgresRepository(pool database.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Columns are scanned in this order by scanRecord.
const selectRecord = `
	SELECT
		zip_code, to_char(date, 'YYYY-MM-DD'),
		tree_pollen::float8, grass_pollen::float8, weed_pollen::float8,
		COALESCE(pollen_level, ''), air_quality, updated_at
	FROM environmental_data
`

// Get retrieves the record for one day.
func (r *PostgresRepository) Get(ctx context.Context, zipCode, date string) (*Record, error) {
	query := selectRecord + ` WHERE zip_code = $1 AND date = $2::date`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, zipCode, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListRange retrieves records within [from, to], ascending by date.
func (r *PostgresRepository) ListRange(ctx context.Context, zipCode, from, to string) ([]*Record, error) {
	query := selectRecord + `
		WHERE zip_code = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query, zipCode, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertPollen inserts or updates the pollen columns.
func (r *PostgresRepository) UpsertPollen(ctx context.Context, zipCode, date string, values PollenValues) error {
	query := `
		INSERT INTO environmental_data (zip_code, date, tree_pollen, grass_pollen, weed_pollen, pollen_level, updated_at)
		VALUES ($1, $2::date, $3, $4, $5, $6, NOW())
		ON CONFLICT (zip_code, date) DO UPDATE SET
			tree_pollen = EXCLUDED.tree_pollen,
			grass_pollen = EXCLUDED.grass_pollen,
			weed_pollen = EXCLUDED.weed_pollen,
			pollen_level = EXCLUDED.pollen_level,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, zipCode, date, values.Tree, values.Grass, values.Weed, values.Level)
	return err
}

// UpsertAirQuality inserts or updates the air quality column.
func (r *PostgresRepository) UpsertAirQuality(ctx context.Context, zipCode, date string, aqi int) error {
	query := `
		INSERT INTO environmental_data (zip_code, date, air_quality, updated_at)
		VALUES ($1, $2::date, $3, NOW())
		ON CONFLICT (zip_code, date) DO UPDATE SET
			air_quality = EXCLUDED.air_quality,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, zipCode, date, aqi)
	return err
}

// ListZipCodes returns distinct postal codes.
func (r *PostgresRepository) ListZipCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT zip_code FROM environmental_data ORDER BY zip_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zips []string
	for rows.Next() {
		var zip string
		if err := rows.Scan(&zip); err != nil {
			return nil, err
		}
		zips = append(zips, zip)
	}
	return zips, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ZipCode,
		&rec.Date,
		&rec.TreePollen,
		&rec.GrassPollen,
		&rec.WeedPollen,
		&rec.PollenLevel,
		&rec.AirQuality,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ Repository = (*PostgresRepository)(nil)
