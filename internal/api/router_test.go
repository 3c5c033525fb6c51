package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/airquality"
	"github.com/pollenpaw/pollenpaw/internal/analysis"
	"github.com/pollenpaw/pollenpaw/internal/api"
	"github.com/pollenpaw/pollenpaw/internal/api/handler"
	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/auth"
	"github.com/pollenpaw/pollenpaw/internal/environment"
	"github.com/pollenpaw/pollenpaw/internal/featureflags"
	"github.com/pollenpaw/pollenpaw/internal/pet"
	"github.com/pollenpaw/pollenpaw/internal/pollen"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
	"github.com/pollenpaw/pollenpaw/internal/symptom"
)

// testJWTService creates a JWT service for generating test tokens.
func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.pollenpaw.app",
		Audience:   "pollenpaw-api",
	})
}

// generateTestToken generates a valid test token for an owner.
func generateTestToken(t *testing.T, ownerID string) string {
	t.Helper()
	token, _, err := testJWTService().GenerateAccessToken(ownerID)
	require.NoError(t, err)
	return token
}

type stubPollen struct {
	forecast *pollen.Forecast
	day      *pollen.DailyForecast
	err      error
}

func (s *stubPollen) GetForecast(_ context.Context, _ string) (*pollen.Forecast, error) {
	return s.forecast, s.err
}

func (s *stubPollen) GetForDate(_ context.Context, _, _ string) (*pollen.DailyForecast, error) {
	return s.day, s.err
}

type stubAirQuality struct {
	reading *airquality.Reading
	err     error
}

func (s *stubAirQuality) Current(_ context.Context, _ string) (*airquality.Reading, error) {
	return s.reading, s.err
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testEnv struct {
	router      http.Handler
	environment *environment.InMemoryRepository
	pollen      *stubPollen
	airQuality  *stubAirQuality
	flags       *featureflags.Service
	registry    *resilience.Registry
}

func newTestEnv(t *testing.T, checks ...handler.Check) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	env := environment.NewInMemoryRepository()
	pets := pet.NewService(pet.NewInMemoryRepository())
	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     logger,
	})
	symptoms := symptom.NewService(symptom.ServiceConfig{
		Repository:   symptom.NewInMemoryRepository(env),
		Pets:         pets,
		FeatureFlags: flags,
		Logger:       logger,
	})
	analyses := analysis.NewService(analysis.ServiceConfig{
		Pets:   pets,
		Series: symptoms,
		Logger: logger,
	})

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("google-pollen")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	te := &testEnv{
		environment: env,
		pollen:      &stubPollen{},
		airQuality:  &stubAirQuality{},
		flags:       flags,
		registry:    registry,
	}
	te.router = api.NewRouter(api.RouterConfig{
		Version:            "test",
		BuildTime:          "2026-01-01T00:00:00Z",
		Logger:             logger,
		TokenValidator:     testJWTService(),
		Checks:             checks,
		Registry:           registry,
		PetService:         pets,
		PetLookup:          pets,
		SymptomService:     symptoms,
		AnalysisService:    analyses,
		PollenService:      te.pollen,
		AirQualityService:  te.airQuality,
		FeatureFlagService: flags,
	})
	return te
}

func (te *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return te.doAs(t, "usr_testuser123", method, path, body)
}

func (te *testEnv) doAs(t *testing.T, ownerID, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	reqBody := io.Reader(http.NoBody)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ownerID != "" {
		req.Header.Set("Authorization", "Bearer "+generateTestToken(t, ownerID))
	}

	w := httptest.NewRecorder()
	te.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createPet(t *testing.T, te *testEnv, name string) models.Pet {
	t.Helper()
	zip := "98074"
	w := te.do(t, http.MethodPost, "/v1/pets", models.PetCreateRequest{
		Name:    name,
		Species: models.SpeciesDog,
		ZipCode: &zip,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Pet](t, w)
}

func logSymptoms(t *testing.T, te *testEnv, petID, date string, score int) {
	t.Helper()
	w := te.do(t, http.MethodPost, "/v1/pets/"+petID+"/symptoms", models.SymptomLogCreateRequest{
		LogDate:     &date,
		EyeSymptoms: &score,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRouter_HealthCheck(t *testing.T) {
	te := newTestEnv(t)

	w := te.doAs(t, "", http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	health := decode[models.Health](t, w)
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		te := newTestEnv(t, handler.Check{Name: "postgres", Pinger: pingerFunc(func(context.Context) error { return nil })})

		w := te.doAs(t, "", http.MethodGet, "/v1/ops/ready", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		health := decode[models.Health](t, w)
		assert.Equal(t, models.HealthStatusOK, health.Status)
		assert.Equal(t, "OK", health.Details["postgres"])
	})

	t.Run("dependency down", func(t *testing.T) {
		te := newTestEnv(t,
			handler.Check{Name: "postgres", Pinger: pingerFunc(func(context.Context) error { return nil })},
			handler.Check{Name: "cache", Pinger: pingerFunc(func(context.Context) error { return errors.New("connection refused") })},
		)

		w := te.doAs(t, "", http.MethodGet, "/v1/ops/ready", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		health := decode[models.Health](t, w)
		assert.Equal(t, models.HealthStatusFail, health.Status)
		assert.Equal(t, "FAIL", health.Details["cache"])
	})
}

func TestRouter_SystemStatus(t *testing.T) {
	te := newTestEnv(t, handler.Check{Name: "postgres", Pinger: pingerFunc(func(context.Context) error { return nil })})

	w := te.doAs(t, "", http.MethodGet, "/v1/ops/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	status := decode[models.SystemStatus](t, w)
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "postgres", status.Subsystems[0].Name)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "google-pollen", status.Providers[0].Provider)
	assert.Equal(t, models.HealthStatusOK, status.Providers[0].Status)
	assert.Empty(t, status.ActiveDegradationFlags)
}

func TestRouter_SystemStatus_ActiveFlags(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.flags.SetFlag(context.Background(), &featureflags.Flag{
		Key:   featureflags.FlagDisableAirQuality,
		Value: true,
	}))

	w := te.doAs(t, "", http.MethodGet, "/v1/ops/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	status := decode[models.SystemStatus](t, w)
	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	assert.Equal(t, []string{featureflags.FlagDisableAirQuality}, status.ActiveDegradationFlags)
}

func TestRouter_RequiresAuth(t *testing.T) {
	te := newTestEnv(t)

	paths := []string{
		"/v1/pets",
		"/v1/pollen/forecast?zip=98074",
		"/v1/air-quality?zip=98074",
		"/v1/feature-flags",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := te.doAs(t, "", http.MethodGet, path, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_PetLifecycle(t *testing.T) {
	te := newTestEnv(t)

	created := createPet(t, te, "Biscuit")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Biscuit", created.Name)

	w := te.do(t, http.MethodGet, "/v1/pets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.PetList](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)

	name := "Biscuit II"
	w = te.do(t, http.MethodPatch, "/v1/pets/"+created.ID, models.PetUpdateRequest{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Biscuit II", decode[models.Pet](t, w).Name)

	w = te.do(t, http.MethodDelete, "/v1/pets/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = te.do(t, http.MethodGet, "/v1/pets/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CreatePet_ValidationError(t *testing.T) {
	te := newTestEnv(t)

	w := te.do(t, http.MethodPost, "/v1/pets", models.PetCreateRequest{Name: "Rex", Species: "hamster"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	problem := decode[models.Problem](t, w)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "species", problem.Errors[0].Field)
}

func TestRouter_CreatePet_RejectsNonJSON(t *testing.T) {
	te := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/pets", bytes.NewReader([]byte("name=Rex")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, "usr_testuser123"))
	w := httptest.NewRecorder()
	te.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_PetsAreScopedToOwner(t *testing.T) {
	te := newTestEnv(t)
	created := createPet(t, te, "Biscuit")

	w := te.doAs(t, "usr_someoneelse", http.MethodGet, "/v1/pets/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = te.doAs(t, "usr_someoneelse", http.MethodGet, "/v1/pets/"+created.ID+"/symptoms", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SymptomLifecycle(t *testing.T) {
	te := newTestEnv(t)
	p := createPet(t, te, "Biscuit")
	base := "/v1/pets/" + p.ID + "/symptoms"

	date := "2026-05-01"
	eye, fur := 4, 2
	w := te.do(t, http.MethodPost, base, models.SymptomLogCreateRequest{
		LogDate:     &date,
		EyeSymptoms: &eye,
		FurQuality:  &fur,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.SymptomLog](t, w)
	assert.InDelta(t, 3.0, created.Severity, 1e-9)
	require.NotNil(t, created.ZipCode)
	assert.Equal(t, "98074", *created.ZipCode)
	assert.Equal(t, base+"/"+created.ID, w.Header().Get("Location"))

	w = te.do(t, http.MethodPatch, base+"/"+created.ID, models.SymptomLogUpdateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update", decode[models.Problem](t, w).Detail)

	bad := 9
	w = te.do(t, http.MethodPatch, base+"/"+created.ID, models.SymptomLogUpdateRequest{Respiratory: &bad})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = te.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.SymptomLogList](t, w).Items, 1)

	w = te.do(t, http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = te.do(t, http.MethodGet, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Symptom log not found", decode[models.Problem](t, w).Detail)
}

func TestRouter_Correlation(t *testing.T) {
	te := newTestEnv(t)
	p := createPet(t, te, "Biscuit")
	path := "/v1/pets/" + p.ID + "/analysis/correlation"

	logSymptoms(t, te, p.ID, "2026-05-01", 1)

	w := te.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	insufficient := decode[models.CorrelationAnalysis](t, w)
	assert.Equal(t, models.CorrelationStatusInsufficientData, insufficient.Status)
	assert.Equal(t, 1, insufficient.DaysLogged)
	require.NotNil(t, insufficient.DaysNeeded)
	assert.Equal(t, 2, *insufficient.DaysNeeded)
	assert.Nil(t, insufficient.Correlations)

	logSymptoms(t, te, p.ID, "2026-05-02", 3)
	logSymptoms(t, te, p.ID, "2026-05-03", 5)

	ctx := context.Background()
	for date, tree := range map[string]float64{"2026-05-01": 1, "2026-05-02": 3, "2026-05-03": 5} {
		require.NoError(t, te.environment.UpsertPollen(ctx, "98074", date, environment.PollenValues{
			Tree: tree, Grass: 2, Weed: 1, Level: "MODERATE",
		}))
	}

	w = te.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[models.CorrelationAnalysis](t, w)
	assert.Equal(t, models.CorrelationStatusSuccess, result.Status)
	assert.Equal(t, "Biscuit", result.PetName)
	assert.Equal(t, 3, result.DaysLogged)
	require.NotNil(t, result.Correlations)
	assert.Equal(t, "tree", result.Correlations.TopTrigger)
	assert.InDelta(t, 1.0, result.Correlations.TreeCorr, 1e-9)
	assert.Zero(t, result.Correlations.GrassCorr)
	assert.Len(t, result.ChartData, 3)
	require.NotNil(t, result.Insights)
	assert.Contains(t, result.Insights.TopTriggerInsight, "Biscuit")
}

func TestRouter_ExportCorrelation(t *testing.T) {
	te := newTestEnv(t)
	p := createPet(t, te, "Biscuit")

	w := te.do(t, http.MethodGet, "/v1/pets/"+p.ID+"/analysis/export.xlsx", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "analysis-"+p.ID+".xlsx")
	// XLSX is a zip container.
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestRouter_PollenForecast(t *testing.T) {
	te := newTestEnv(t)
	te.pollen.forecast = &pollen.Forecast{
		ZipCode:  "98074",
		Location: "Sammamish, WA 98074, USA",
		Provider: "google-pollen",
		Days: []pollen.DailyForecast{
			{
				Date:            "2026-05-01",
				Extracted:       pollen.Extracted{Tree: 3.5, Grass: 1, Weed: 0},
				Level:           pollen.LevelModerate,
				Recommendations: []string{"Keep windows closed"},
			},
		},
	}

	w := te.do(t, http.MethodGet, "/v1/pollen/forecast?zip=98074", nil)

	require.Equal(t, http.StatusOK, w.Code)
	forecast := decode[models.PollenForecast](t, w)
	assert.Equal(t, "98074", forecast.ZipCode)
	require.Len(t, forecast.Days, 1)
	assert.Equal(t, "MODERATE", forecast.Days[0].Level)
	assert.InDelta(t, 3.5, forecast.Days[0].Pollen.Tree, 1e-9)
}

func TestRouter_PollenHistory(t *testing.T) {
	te := newTestEnv(t)
	te.pollen.day = &pollen.DailyForecast{Date: "2026-05-01", Level: pollen.LevelLow}

	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
	}{
		{name: "ok", query: "?zip=98074&date=2026-05-01", wantStatus: http.StatusOK},
		{name: "missing zip", query: "?date=2026-05-01", wantStatus: http.StatusBadRequest},
		{name: "bad date", query: "?zip=98074&date=05/01/2026", wantStatus: http.StatusBadRequest},
		{name: "outside window", query: "?zip=98074&date=2020-01-01", err: pollen.ErrNoData, wantStatus: http.StatusNotFound},
		{name: "provider down", query: "?zip=98074&date=2026-05-01", err: pollen.ErrProviderUnavailable, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te.pollen.err = tt.err
			w := te.do(t, http.MethodGet, "/v1/pollen/history"+tt.query, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_AirQuality(t *testing.T) {
	te := newTestEnv(t)
	te.airQuality.reading = &airquality.Reading{
		ZipCode:   "98074",
		Date:      "2026-05-01",
		AQI:       42,
		Provider:  "google-air-quality",
		FetchedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	w := te.do(t, http.MethodGet, "/v1/air-quality?zip=98074", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42, decode[models.AirQuality](t, w).AQI)

	te.airQuality.err = airquality.ErrDisabled
	w = te.do(t, http.MethodGet, "/v1/air-quality?zip=98074", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_PhotoUpload_NotConfigured(t *testing.T) {
	te := newTestEnv(t)

	w := te.do(t, http.MethodPost, "/v1/photos/upload-url", models.PhotoUploadRequest{
		FileName:    "biscuit.jpg",
		ContentType: "image/jpeg",
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_FeatureFlags(t *testing.T) {
	te := newTestEnv(t)

	w := te.do(t, http.MethodGet, "/v1/feature-flags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[featureflags.FlagList](t, w)
	require.Len(t, list.Items, 4)
	assert.Equal(t, featureflags.FlagCachedOnlyPollenHistory, list.Items[0].Key)

	w = te.do(t, http.MethodPatch, "/v1/feature-flags", featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{{Key: featureflags.FlagPollenZeroAsReading, Value: true}},
		Reason:  "provider sends real zeros",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, te.flags.IsPollenZeroAsReading(context.Background()))

	w = te.do(t, http.MethodPatch, "/v1/feature-flags", featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{{Key: "not_a_flag", Value: true}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = te.do(t, http.MethodPatch, "/v1/feature-flags", featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{{Key: featureflags.FlagDisableAirQuality, Value: "yes"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
