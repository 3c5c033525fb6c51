package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/api/middleware"
	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
)

// withRequestID returns req as seen by a handler behind middleware.RequestID.
func withRequestID(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	var seen *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	return seen
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/pets", http.NoBody)
	req.Header.Set("X-Request-Id", "req_client")
	req = withRequestID(t, req)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"name": "Biscuit"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_client", rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"name":"Biscuit"}`, rec.Body.String())
}

func TestJSON_NoRequestIDNoBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/pets", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	assert.Empty(t, rec.Header().Get("X-Request-Id"))
	assert.Zero(t, rec.Body.Len())
}

func TestCreated(t *testing.T) {
	req := withRequestID(t, httptest.NewRequest(http.MethodPost, "/v1/pets", http.NoBody))
	rec := httptest.NewRecorder()

	response.Created(rec, req, "/v1/pets/pet_1", map[string]string{"id": "pet_1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/pets/pet_1", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"id":"pet_1"}`, rec.Body.String())
}

func TestNoContent(t *testing.T) {
	req := withRequestID(t, httptest.NewRequest(http.MethodDelete, "/v1/pets/pet_1", http.NoBody))
	rec := httptest.NewRecorder()

	response.NoContent(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Zero(t, rec.Body.Len())
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
		kind   models.ProblemKind
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			response.Unauthorized(w, r, "invalid access token")
		}, http.StatusUnauthorized, models.KindUnauthorized},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "Pet not found")
		}, http.StatusNotFound, models.KindNotFound},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			response.InternalError(w, r, "internal server error")
		}, http.StatusInternalServerError, models.KindInternal},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) {
			response.ServiceUnavailable(w, r, "Upstream data provider is unavailable")
		}, http.StatusServiceUnavailable, models.KindUnavailable},
		{"conflict", func(w http.ResponseWriter, r *http.Request) {
			response.Problem(w, r, models.KindConflict, "already exists")
		}, http.StatusConflict, models.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withRequestID(t, httptest.NewRequest(http.MethodGet, "/v1/pets/pet_1", http.NoBody))
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			p := decodeProblem(t, rec)
			assert.Equal(t, tt.kind.URI(), p.Type)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, "/v1/pets/pet_1", p.Instance)
			assert.Equal(t, rec.Header().Get("X-Request-Id"), p.TraceID)
			assert.NotEmpty(t, p.TraceID)
		})
	}
}

func TestBadRequest_FieldErrors(t *testing.T) {
	req := withRequestID(t, httptest.NewRequest(http.MethodPost, "/v1/pets/pet_1/symptoms", http.NoBody))
	rec := httptest.NewRecorder()

	response.BadRequest(rec, req, "validation failed", []models.FieldError{
		{Field: "severity", Message: "must be between 1 and 5", Code: "OUT_OF_RANGE"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "validation failed", p.Detail)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "severity", p.Errors[0].Field)
}
