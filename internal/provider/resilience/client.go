package resilience

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrCircuitOpen is returned without calling the provider while its breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies the provider in logs, metrics and /v1/ops/status.
	Name string

	// Timeout bounds each attempt.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retries; DefaultClientConfig uses 3.
	MaxRetries uint64

	// InitialInterval is the first backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// CircuitBreaker overrides DefaultCircuitBreakerConfig (optional).
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives this client and its outcomes (optional).
	Registry *Registry

	// Logger receives circuit state transitions.
	Logger zerolog.Logger
}

// DefaultClientConfig returns the settings used for provider clients.
func DefaultClientConfig(name string) ClientConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cbConfig,
		Logger:          zerolog.Nop(),
	}
}

// Client is an HTTP client for one upstream provider. Requests are retried on
// transient failures behind a circuit breaker.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	registry   *Registry
	config     ClientConfig
	attrs      metric.MeasurementOption
}

// NewClient creates a client and registers it when a registry is configured.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}
	if cbConfig.OnStateChange == nil {
		logger := cfg.Logger
		cbConfig.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		}
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newCircuitBreaker[*http.Response](cbConfig), //nolint:bodyclose // type param, not response
		registry:   cfg.Registry,
		config:     cfg,
		attrs:      metric.WithAttributes(attribute.String("provider", cfg.Name)),
	}

	if c.registry != nil {
		c.registry.Register(cfg.Name, c)
	}

	return c
}

// Name returns the client's provider name.
func (c *Client) Name() string {
	return c.config.Name
}

// Do sends req under its own context.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext sends req, retrying network errors, 5xx and 429 responses
// with exponential backoff. Other 4xx responses are returned as-is. When
// retries run out on an error status, the last response is returned with a
// nil error so the caller can read it. Returns ErrCircuitOpen while the
// breaker is open. Request bodies are replayed through req.GetBody.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var (
		lastResp *http.Response
		attempts int64
	)

	keep := func(resp *http.Response) {
		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		lastResp = resp
	}

	operation := func() error {
		attempts++
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to the caller
			return c.attempt(ctx, req)
		})
		if resp != nil {
			keep(resp)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		return err
	}

	err := backoff.Retry(operation, policy)

	instruments().attempts.Add(ctx, attempts, c.attrs)
	instruments().duration.Record(ctx, time.Since(start).Seconds(), c.attrs,
		metric.WithAttributes(attribute.String("outcome", outcome(err))))

	if err != nil {
		c.observe(err)
		if lastResp == nil {
			return nil, err
		}
		if errors.Is(err, ErrCircuitOpen) {
			_ = lastResp.Body.Close()
			return nil, err
		}
		return lastResp, nil
	}

	c.observe(nil)
	return lastResp, nil
}

func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempt := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		attempt.Body = body
	}

	resp, err := c.httpClient.Do(attempt)
	if err != nil {
		return nil, err
	}
	if isRetryableStatus(resp.StatusCode) {
		return resp, &ServerError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) observe(err error) {
	if c.registry != nil {
		c.registry.Observe(c.config.Name, err)
	}
}

func isRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}

// ServerError is an error status from the provider: a 5xx or 429.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the breaker's current state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the breaker's current counts.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

type clientInstruments struct {
	duration metric.Float64Histogram
	attempts metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	clientMetrics   clientInstruments
)

// instruments are created on first use so they bind to the meter provider
// installed at startup.
func instruments() clientInstruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("github.com/pollenpaw/pollenpaw/internal/provider/resilience")
		clientMetrics.duration, _ = meter.Float64Histogram(
			"provider.request.duration",
			metric.WithDescription("Duration of provider calls including retries"),
			metric.WithUnit("s"),
		)
		clientMetrics.attempts, _ = meter.Int64Counter(
			"provider.request.attempts",
			metric.WithDescription("HTTP attempts made against providers"),
		)
	})
	return clientMetrics
}
