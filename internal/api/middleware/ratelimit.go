package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/pollenpaw/pollenpaw/internal/api/models"
)

// RateLimitTier is a request budget per caller per window.
type RateLimitTier struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Tiers used by the router.
var (
	// TierUpload covers photo upload URL issuance.
	TierUpload = RateLimitTier{Name: "upload", Requests: 10, Window: time.Minute}

	// TierUpstream covers endpoints that may call a pollen or air quality
	// provider, and the correlation analysis.
	TierUpstream = RateLimitTier{Name: "upstream", Requests: 30, Window: time.Minute}

	// TierStandard covers pet, symptom and flag CRUD.
	TierStandard = RateLimitTier{Name: "standard", Requests: 100, Window: time.Minute}
)

// RateLimit limits requests per owner. Requests not yet authenticated are
// keyed by client IP.
func RateLimit(tier RateLimitTier) func(http.Handler) http.Handler {
	return limit(tier, keyByOwner)
}

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(tier RateLimitTier) func(http.Handler) http.Handler {
	return limit(tier, httprate.KeyByRealIP)
}

func limit(tier RateLimitTier, key httprate.KeyFunc) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(tier.Window.Seconds()))
	return httprate.Limit(
		tier.Requests,
		tier.Window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			// httprate does not expose the window reset, so advise a full window.
			w.Header().Set("Retry-After", retryAfter)
			models.NewProblem(models.KindTooManyRequests, RequestIDFrom(r.Context()),
				"Rate limit exceeded. Please try again later.").
				WithInstance(r.URL.Path).
				Write(w)
		}),
	)
}

func keyByOwner(r *http.Request) (string, error) {
	if owner := OwnerID(r.Context()); owner != "" {
		return "owner:" + owner, nil
	}
	return httprate.KeyByRealIP(r)
}
