// Package response writes handler responses. Every response echoes the
// request ID in X-Request-Id, and errors are RFC 7807 problems.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/pollenpaw/pollenpaw/internal/api/middleware"
	"github.com/pollenpaw/pollenpaw/internal/api/models"
)

// JSON writes data as the response body. A nil data writes no body.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	write(w, r, status, "", data)
}

// Created writes a 201 with an optional Location.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	write(w, r, http.StatusCreated, location, data)
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func write(w http.ResponseWriter, r *http.Request, status int, location string, data interface{}) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	if location != "" {
		w.Header().Set("Location", location)
	}
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if id := middleware.RequestIDFrom(r.Context()); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
}

// Problem writes a problem of kind for the request.
func Problem(w http.ResponseWriter, r *http.Request, kind models.ProblemKind, detail string) {
	problemFor(r, kind, detail).Write(w)
}

func problemFor(r *http.Request, kind models.ProblemKind, detail string) *models.Problem {
	return models.NewProblem(kind, middleware.RequestIDFrom(r.Context()), detail).WithInstance(r.URL.Path)
}

// BadRequest writes a 400 with optional field errors.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errs []models.FieldError) {
	problemFor(r, models.KindValidation, detail).WithErrors(errs).Write(w)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.KindUnauthorized, detail)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.KindNotFound, detail)
}

// InternalError writes a 500. detail must not carry internal error text.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.KindInternal, detail)
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, models.KindUnavailable, detail)
}
