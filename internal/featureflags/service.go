package featureflags

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL is how long a loaded snapshot is served (default: 1 minute).
	CacheTTL time.Duration

	// DefaultFlags fill in for flags the repository does not hold
	// (default: DefaultFlags()).
	DefaultFlags map[string]*Flag

	// Clock is used for cache expiry and update timestamps (optional).
	Clock clockwork.Clock
}

// Service evaluates flags from a cached snapshot of the repository merged
// over defaults. A nil *Service reports every flag as off.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	defaults map[string]*Flag
	clock    clockwork.Clock

	mu       sync.RWMutex
	snapshot map[string]*Flag
	loadedAt time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}

	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		defaults: defaults,
		clock:    clock,
	}
}

// GetFlag returns the flag for key, or nil when it is neither stored nor
// defaulted.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	return s.load(ctx)[key]
}

// GetAllFlags returns every flag, stored values taking precedence over
// defaults. The map is the caller's to modify.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	snapshot := s.load(ctx)
	result := make(map[string]*Flag, len(snapshot))
	for k, v := range snapshot {
		result[k] = v
	}
	return result
}

// SetFlag stores one flag.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	return s.SetFlags(ctx, []*Flag{flag})
}

// SetFlags stores flags in one repository write and drops the snapshot so
// the next read sees them.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := s.clock.Now().UTC()
	for _, flag := range flags {
		flag.UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	s.InvalidateCache()
	return nil
}

// InvalidateCache forces the next read to reload from the repository.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.loadedAt = time.Time{}
}

// IsEnabled reports whether the flag is on.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	if s == nil {
		return false
	}
	return s.GetFlag(ctx, key).BoolValue(false)
}

// load returns the current snapshot, reloading it once the TTL has passed.
// When the repository fails, the previous snapshot is kept; without one the
// defaults are served uncached so the next read retries.
func (s *Service) load(ctx context.Context) map[string]*Flag {
	s.mu.RLock()
	snapshot, loadedAt := s.snapshot, s.loadedAt
	s.mu.RUnlock()

	if snapshot != nil && s.clock.Since(loadedAt) < s.cacheTTL {
		return snapshot
	}

	stored, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		if snapshot != nil {
			s.logger.Warn().Err(err).Msg("failed to reload feature flags, serving previous values")
			return snapshot
		}
		s.logger.Warn().Err(err).Msg("failed to load feature flags, using defaults")
		return s.defaults
	}

	merged := make(map[string]*Flag, len(s.defaults)+len(stored))
	for k, v := range s.defaults {
		merged[k] = v
	}
	for k, v := range stored {
		merged[k] = v
	}

	s.mu.Lock()
	s.snapshot = merged
	s.loadedAt = s.clock.Now()
	s.mu.Unlock()

	return merged
}

// IsPollenZeroAsReading reports whether a pollen index of 0 is a reading.
func (s *Service) IsPollenZeroAsReading(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagPollenZeroAsReading)
}

// IsAirQualityDisabled reports whether air quality lookups are off.
func (s *Service) IsAirQualityDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableAirQuality)
}

// IsEventPublishingDisabled reports whether symptom events are suppressed.
func (s *Service) IsEventPublishingDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableEventPublishing)
}

// IsCachedOnlyPollenHistory reports whether history lookups must skip the provider.
func (s *Service) IsCachedOnlyPollenHistory(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagCachedOnlyPollenHistory)
}
