package analysis_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pollenpaw/pollenpaw/internal/analysis"
	"github.com/pollenpaw/pollenpaw/internal/pet"
	"github.com/pollenpaw/pollenpaw/internal/symptom"
)

type stubPets map[string]*pet.Pet

func (s stubPets) Lookup(_ context.Context, ownerID, petID string) (*pet.Pet, error) {
	p, ok := s[petID]
	if !ok || p.OwnerID != ownerID {
		return nil, pet.ErrNotFound
	}
	return p, nil
}

type stubSeries map[string][]symptom.SeriesEntry

func (s stubSeries) Series(_ context.Context, petID string) ([]symptom.SeriesEntry, error) {
	return s[petID], nil
}

func entry(date string, eye int, tree float64) symptom.SeriesEntry {
	return symptom.SeriesEntry{LogDate: date, Axes: symptom.Axes{EyeSymptoms: intPtr(eye)}, TreePollen: tree}
}

func newService() *analysis.Service {
	return analysis.NewService(analysis.ServiceConfig{
		Pets: stubPets{
			"pet_1": {ID: "pet_1", OwnerID: "owner-1", Name: "Biscuit"},
			"pet_2": {ID: "pet_2", OwnerID: "owner-1"},
		},
		Series: stubSeries{
			"pet_1": {entry("2026-04-01", 1, 1), entry("2026-04-02", 3, 3), entry("2026-04-03", 5, 5)},
			"pet_2": {entry("2026-04-01", 2, 0)},
		},
		Logger: zerolog.Nop(),
	})
}

func TestService_Correlation(t *testing.T) {
	result, err := newService().Correlation(context.Background(), "owner-1", "pet_1")
	require.NoError(t, err)

	assert.Equal(t, analysis.StatusSuccess, result.Status)
	assert.Equal(t, "Biscuit", result.PetName)
	assert.Equal(t, 1.0, result.Correlations.Tree)
}

func TestService_Correlation_DefaultName(t *testing.T) {
	result, err := newService().Correlation(context.Background(), "owner-1", "pet_2")
	require.NoError(t, err)

	assert.Equal(t, analysis.StatusInsufficientData, result.Status)
	assert.Equal(t, analysis.DefaultPetName, result.PetName)
	assert.Equal(t, 2, result.DaysNeeded)
}

func TestService_Correlation_OtherOwner(t *testing.T) {
	_, err := newService().Correlation(context.Background(), "owner-2", "pet_1")
	assert.ErrorIs(t, err, pet.ErrNotFound)
}

func TestService_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newService().Export(context.Background(), "owner-1", "pet_1", &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(analysis.ChartSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Symptom Severity", "Tree Pollen", "Grass Pollen", "Weed Pollen"}, rows[0])
	assert.Equal(t, "2026-04-01", rows[1][0])
	assert.Equal(t, "5", rows[3][1])

	summary, err := f.GetRows(analysis.SummarySheet)
	require.NoError(t, err)
	assert.Contains(t, summary, []string{"Top Trigger", "Tree Pollen"})
	assert.Contains(t, summary, []string{"Pet", "Biscuit"})
}

func TestWriteXLSX_InsufficientData(t *testing.T) {
	var buf bytes.Buffer
	result := analysis.Correlate("Milo", nil)
	require.NoError(t, analysis.WriteXLSX(&buf, result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(analysis.ChartSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	summary, err := f.GetRows(analysis.SummarySheet)
	require.NoError(t, err)
	assert.Contains(t, summary, []string{"Status", "insufficient_data"})
}
