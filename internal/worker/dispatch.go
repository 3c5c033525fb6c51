package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/events"
)

// ErrUnknownJob is returned for events the worker has no handler for.
// Transports acknowledge them so they are not redelivered.
var ErrUnknownJob = errors.New("unknown job type")

// Dispatcher routes events to jobs.
type Dispatcher struct {
	refresh *RefreshJob
	metrics *Metrics
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher backed by the refresh job.
func NewDispatcher(refresh *RefreshJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		refresh: refresh,
		metrics: refresh.metrics,
		logger:  logger,
	}
}

// Dispatch runs the job for e.
func (d *Dispatcher) Dispatch(ctx context.Context, e events.Event) error {
	var err error
	switch e.Type {
	case events.TypeProviderRefresh:
		err = d.providerRefresh(ctx)
	case events.TypeSymptomLogged:
		err = d.symptomLogged(ctx, e)
	default:
		d.metrics.Jobs.WithLabelValues("unknown", "ignored").Inc()
		return fmt.Errorf("%w: %q", ErrUnknownJob, e.Type)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	d.metrics.Jobs.WithLabelValues(e.Type, outcome).Inc()
	return err
}

func (d *Dispatcher) providerRefresh(ctx context.Context) error {
	result := d.refresh.Run(ctx)

	// Consider it successful if at least half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.ZipCodes)
	}
	return nil
}

// symptomLogged backfills the environment row a new log entry joins against.
func (d *Dispatcher) symptomLogged(ctx context.Context, e events.Event) error {
	if e.ZipCode == "" || e.Date == "" {
		d.logger.Debug().Str("pet_id", e.PetID).Msg("symptom event without location, nothing to backfill")
		return nil
	}
	return d.refresh.RefreshZip(ctx, e.ZipCode, e.Date)
}
