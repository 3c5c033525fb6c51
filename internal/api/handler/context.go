package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/api/middleware"
)

// ownerID is the authenticated owner of the request.
func ownerID(r *http.Request) string {
	return middleware.OwnerID(r.Context())
}

// LoggerFromRequest returns the request-scoped logger.
func LoggerFromRequest(r *http.Request) *zerolog.Logger {
	return middleware.LoggerFromContext(r.Context())
}
