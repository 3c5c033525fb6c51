package symptom_test

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/symptom"
)

func TestPostgresRepository_Series(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var none *int
	rows := pgxmock.NewRows([]string{
		"log_date", "eye_symptoms", "fur_quality", "skin_irritation", "respiratory",
		"tree_pollen", "grass_pollen", "weed_pollen", "air_quality",
	}).
		AddRow("2026-04-01", intPtr(2), none, none, none, 0.0, 0.0, 0.0, 0).
		AddRow("2026-04-02", intPtr(4), intPtr(2), none, none, 7.5, 1.0, 0.0, 51)

	mock.ExpectQuery("LEFT JOIN environmental_data").
		WithArgs("pet_1").
		WillReturnRows(rows)

	repo := symptom.NewPostgresRepository(mock)
	series, err := repo.Series(context.Background(), "pet_1")
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "2026-04-01", series[0].LogDate)
	assert.Nil(t, series[0].Axes.FurQuality)
	assert.InDelta(t, 2.0, series[0].Axes.Severity(), 1e-9)

	assert.Equal(t, 7.5, series[1].TreePollen)
	assert.Equal(t, 51, series[1].AirQuality)
	assert.InDelta(t, 3.0, series[1].Axes.Severity(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM symptom_logs").
		WithArgs("sym_1", "pet_1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	repo := symptom.NewPostgresRepository(mock)
	_, err = repo.Get(context.Background(), "pet_1", "sym_1")
	assert.ErrorIs(t, err, symptom.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM symptom_logs").
		WithArgs("sym_1", "pet_1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM symptom_logs").
		WithArgs("sym_1", "pet_1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := symptom.NewPostgresRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), "pet_1", "sym_1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "pet_1", "sym_1"), symptom.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
