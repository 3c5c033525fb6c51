package database

import (
	"context"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS pets (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		name        TEXT NOT NULL,
		species     TEXT NOT NULL CHECK (species IN ('dog', 'cat')),
		breed       TEXT,
		age         INTEGER,
		weight      NUMERIC(6, 2),
		zip_code    TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pets_owner ON pets (owner_id)`,
	`CREATE TABLE IF NOT EXISTS symptom_logs (
		id               TEXT PRIMARY KEY,
		pet_id           TEXT NOT NULL REFERENCES pets (id) ON DELETE CASCADE,
		log_date         DATE NOT NULL,
		zip_code         TEXT NOT NULL DEFAULT '',
		eye_symptoms     SMALLINT CHECK (eye_symptoms BETWEEN 1 AND 5),
		fur_quality      SMALLINT CHECK (fur_quality BETWEEN 1 AND 5),
		skin_irritation  SMALLINT CHECK (skin_irritation BETWEEN 1 AND 5),
		respiratory      SMALLINT CHECK (respiratory BETWEEN 1 AND 5),
		notes            TEXT,
		photo_url        TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symptom_logs_pet_date ON symptom_logs (pet_id, log_date)`,
	`CREATE TABLE IF NOT EXISTS environmental_data (
		zip_code      TEXT NOT NULL,
		date          DATE NOT NULL,
		tree_pollen   NUMERIC(6, 1),
		grass_pollen  NUMERIC(6, 1),
		weed_pollen   NUMERIC(6, 1),
		pollen_level  TEXT,
		air_quality   INTEGER,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (zip_code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS feature_flags (
		key         TEXT PRIMARY KEY,
		value       JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables the service needs.
func Migrate(ctx context.Context, db DBPool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
