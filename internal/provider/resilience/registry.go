package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one upstream provider.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string

	// ConsecutiveFailures counts failed calls since the last success. It
	// survives breaker generations, unlike Counts.
	ConsecutiveFailures int
}

// IsHealthy reports a closed breaker.
func (h ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports a half-open breaker.
func (h ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports an open breaker.
func (h ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// breakerSource is the part of Client the registry reads.
type breakerSource interface {
	CircuitBreakerState() gobreaker.State
	CircuitBreakerCounts() gobreaker.Counts
}

// Registry collects provider clients for the ops status endpoint.
type Registry struct {
	mu        sync.RWMutex
	clock     clockwork.Clock
	providers map[string]*entry
}

type entry struct {
	source   breakerSource
	lastOK   *time.Time
	lastFail *time.Time
	lastErr  string
	failures int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return NewRegistryWithClock(clockwork.NewRealClock())
}

// NewRegistryWithClock creates a registry that timestamps outcomes with clock.
func NewRegistryWithClock(clock clockwork.Clock) *Registry {
	return &Registry{
		clock:     clock,
		providers: make(map[string]*entry),
	}
}

// Register adds or replaces a provider. Outcomes already observed under the
// name are discarded.
func (r *Registry) Register(name string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &entry{source: c}
}

// Unregister removes a provider.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
}

// Observe records the outcome of one call. Unknown names are ignored.
func (r *Registry) Observe(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.providers[name]
	if !ok {
		return
	}

	now := r.clock.Now()
	if err == nil {
		e.lastOK = &now
		e.failures = 0
		return
	}
	e.lastFail = &now
	e.lastErr = err.Error()
	e.failures++
}

// Health returns one provider's health.
func (r *Registry) Health(name string) (ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.providers[name]
	if !ok {
		return ProviderHealth{}, false
	}
	return e.health(name), true
}

// Snapshot returns the health of every provider, sorted by name.
func (r *Registry) Snapshot() []ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(r.providers))
	for name, e := range r.providers {
		out = append(out, e.health(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *entry) health(name string) ProviderHealth {
	return ProviderHealth{
		Name:                name,
		CircuitState:        e.source.CircuitBreakerState(),
		Counts:              e.source.CircuitBreakerCounts(),
		LastSuccessAt:       e.lastOK,
		LastFailureAt:       e.lastFail,
		LastError:           e.lastErr,
		ConsecutiveFailures: e.failures,
	}
}
