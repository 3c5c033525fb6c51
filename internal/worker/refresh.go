package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/airquality"
	"github.com/pollenpaw/pollenpaw/internal/pollen"
)

// Provider labels used in results and metrics.
const (
	ProviderPollen     = "pollen"
	ProviderAirQuality = "air_quality"
)

// PollenRecorder persists a day's pollen for a zip code.
type PollenRecorder interface {
	Record(ctx context.Context, zipCode, date string) (*pollen.DailyForecast, error)
}

// AirQualityRecorder persists a day's air quality for a zip code.
type AirQualityRecorder interface {
	Record(ctx context.Context, zipCode, date string) (*airquality.Reading, error)
	IsEnabled(ctx context.Context) bool
}

// ZipSource lists zip codes that already have environmental data.
type ZipSource interface {
	ListZipCodes(ctx context.Context) ([]string, error)
}

// RefreshJob records provider data for every tracked zip code.
type RefreshJob struct {
	config     RefreshConfig
	pollen     PollenRecorder
	airQuality AirQualityRecorder
	zips       ZipSource
	metrics    *Metrics
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config     RefreshConfig
	Pollen     PollenRecorder
	AirQuality AirQualityRecorder // optional
	Zips       ZipSource          // optional
	Metrics    *Metrics           // optional
	Clock      clockwork.Clock
	Logger     zerolog.Logger
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &RefreshJob{
		config:     cfg.Config.withDefaults(),
		pollen:     cfg.Pollen,
		airQuality: cfg.AirQuality,
		zips:       cfg.Zips,
		metrics:    metrics,
		clock:      clock,
		logger:     cfg.Logger,
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	Date       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	ZipCodes   int
	Successful int
	Failed     int
	Errors     []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Provider string
	ZipCode  string
	Error    string
}

// Run refreshes today's data for the union of stored and seeded zip codes.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := j.clock.Now()
	result := &RefreshResult{
		Date:      pollen.DateOf(startTime.UTC()),
		StartTime: startTime,
	}

	zips := j.zipCodes(ctx)
	result.ZipCodes = len(zips)
	j.metrics.TrackedZipCodes.Set(float64(len(zips)))

	j.logger.Info().
		Str("date", result.Date).
		Int("zip_codes", len(zips)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting provider refresh job")

	work := make(chan string, len(zips))
	results := make(chan zipResult, len(zips))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for zip := range work {
				if ctx.Err() != nil {
					return
				}
				results <- j.refreshZip(ctx, zip, result.Date)
			}
		}()
	}

	for _, zip := range zips {
		work <- zip
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for zr := range results {
		if zr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, zr.errors...)
	}

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.metrics.RunDuration.Observe(result.Duration.Seconds())
	if result.Failed == 0 {
		j.metrics.LastRunSuccess.Set(float64(result.EndTime.Unix()))
	}

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("provider refresh job completed")

	return result
}

// RefreshZip records one zip code's data for date. Pollen failures fail the
// refresh; air quality failures are logged only.
func (j *RefreshJob) RefreshZip(ctx context.Context, zipCode, date string) error {
	zr := j.refreshZip(ctx, zipCode, date)
	for _, e := range zr.errors {
		if e.Provider == ProviderPollen {
			return fmt.Errorf("refreshing %s for %s: %s", zipCode, date, e.Error)
		}
	}
	return nil
}

func (j *RefreshJob) zipCodes(ctx context.Context) []string {
	var stored []string
	if j.zips != nil {
		var err error
		stored, err = j.zips.ListZipCodes(ctx)
		if err != nil {
			j.logger.Warn().Err(err).Msg("failed to list stored zip codes, using seeds only")
		}
	}
	return mergeZipCodes(stored, j.config.SeedZipCodes)
}

type zipResult struct {
	zipCode string
	success bool
	errors  []RefreshError
}

func (j *RefreshJob) refreshZip(ctx context.Context, zipCode, date string) zipResult {
	result := zipResult{zipCode: zipCode, success: true}

	zipCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.RefreshPollen && j.pollen != nil {
		_, err := j.pollen.Record(zipCtx, zipCode, date)
		switch {
		case err == nil:
			j.metrics.Refreshes.WithLabelValues(ProviderPollen, "success").Inc()
		case errors.Is(err, pollen.ErrNoData):
			// Outside the provider's forecast window.
			j.metrics.Refreshes.WithLabelValues(ProviderPollen, "skipped").Inc()
		default:
			j.metrics.Refreshes.WithLabelValues(ProviderPollen, "error").Inc()
			result.errors = append(result.errors, RefreshError{
				Provider: ProviderPollen,
				ZipCode:  zipCode,
				Error:    err.Error(),
			})
			result.success = false
		}
	}

	// Air quality only has current conditions.
	if j.config.RefreshAirQuality && j.airQuality != nil && date == pollen.DateOf(j.clock.Now().UTC()) {
		if !j.airQuality.IsEnabled(zipCtx) {
			j.metrics.Refreshes.WithLabelValues(ProviderAirQuality, "skipped").Inc()
			return result
		}
		_, err := j.airQuality.Record(zipCtx, zipCode, date)
		switch {
		case err == nil:
			j.metrics.Refreshes.WithLabelValues(ProviderAirQuality, "success").Inc()
		case errors.Is(err, airquality.ErrDisabled):
			j.metrics.Refreshes.WithLabelValues(ProviderAirQuality, "skipped").Inc()
		default:
			j.metrics.Refreshes.WithLabelValues(ProviderAirQuality, "error").Inc()
			result.errors = append(result.errors, RefreshError{
				Provider: ProviderAirQuality,
				ZipCode:  zipCode,
				Error:    err.Error(),
			})
			j.logger.Warn().Err(err).Str("zip_code", zipCode).Msg("air quality refresh failed")
		}
	}

	return result
}
