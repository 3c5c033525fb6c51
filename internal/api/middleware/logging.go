package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type logFieldsKey struct{}

// logFields is filled in by inner middleware so the request log line can
// carry values set after Logger hands off the request.
type logFields struct {
	owner string
}

func recordOwner(ctx context.Context, owner string) {
	if fields, ok := ctx.Value(logFieldsKey{}).(*logFields); ok {
		fields.owner = owner
	}
}

// Logger returns a middleware that logs HTTP requests.
// 5xx responses log at error level and 4xx at warn.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)
			fields := &logFields{}

			reqLogger := log.With().Str("request_id", RequestIDFrom(r.Context())).Logger()
			ctx := context.WithValue(reqLogger.WithContext(r.Context()), logFieldsKey{}, fields)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			event := log.Info()
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				event = log.Error()
			case wrapped.statusCode >= http.StatusBadRequest:
				event = log.Warn()
			}

			spanCtx := trace.SpanContextFromContext(r.Context())
			if spanCtx.IsValid() {
				event = event.
					Str("trace_id", spanCtx.TraceID().String()).
					Str("span_id", spanCtx.SpanID().String())
			}

			event.
				Str("request_id", RequestIDFrom(r.Context())).
				Str("owner_id", fields.owner).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", wrapped.statusCode).
				Int64("bytes", wrapped.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("request completed")
		})
	}
}

// LoggerFromContext returns the request-scoped logger set by Logger.
// Outside a request it returns a disabled logger.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
