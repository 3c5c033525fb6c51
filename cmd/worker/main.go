// Package main provides the entrypoint for the pollenpaw worker. It records
// pollen and air quality for tracked zip codes on an interval and on demand
// from queued jobs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/app"
	"github.com/pollenpaw/pollenpaw/internal/config"
	"github.com/pollenpaw/pollenpaw/internal/events"
	"github.com/pollenpaw/pollenpaw/internal/telemetry"
	"github.com/pollenpaw/pollenpaw/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "pollenpaw-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := app.BootLogger(os.Stderr, serviceName)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := app.NewLogger(cfg, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("events_driver", cfg.Events.Driver).
		Msg("starting pollenpaw worker")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker error")
	}
	log.Info().Msg("worker stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	a, err := app.New(ctx, cfg, log)
	defer a.Close()
	if err != nil {
		return err
	}

	metrics := worker.NewMetrics(prometheus.DefaultRegisterer)

	refreshConfig := worker.DefaultRefreshConfig()
	refreshConfig.SeedZipCodes = cfg.Worker.SeedZipCodes
	refreshConfig.Concurrency = cfg.Worker.Concurrency
	refreshConfig.Timeout = cfg.Worker.Timeout

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     refreshConfig,
		Pollen:     a.Pollen,
		AirQuality: a.AirQuality,
		Zips:       a.Environment,
		Metrics:    metrics,
		Clock:      a.Clock,
		Logger:     log,
	})
	dispatcher := worker.NewDispatcher(job, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "version": Version})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/pubsub/push", worker.NewPushHandler(dispatcher, log))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Worker.Timeout + cfg.Server.WriteTimeout,
	}

	var wg sync.WaitGroup
	errs := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", server.Addr).Msg("worker http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	consumer, err := startConsumer(ctx, cfg, dispatcher, log, &wg, errs)
	if err != nil {
		return err
	}
	if consumer != nil {
		defer func() {
			if err := consumer.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close consumer")
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSchedule(ctx, cfg.Worker.Interval, a, dispatcher, log)
	}()

	var runErr error
	select {
	case runErr = <-errs:
		stop()
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("worker http server forced to shutdown")
	}

	wg.Wait()
	return runErr
}

type closer interface {
	Close() error
}

// startConsumer starts the pull consumer for the configured transport.
// Pub/Sub push deliveries need no consumer.
func startConsumer(ctx context.Context, cfg *config.Config, d *worker.Dispatcher, log zerolog.Logger, wg *sync.WaitGroup, errs chan<- error) (closer, error) {
	var start func(context.Context) error
	var c closer

	switch cfg.Events.Driver {
	case events.DriverKafka:
		consumer := worker.NewKafkaConsumer(worker.KafkaConsumerConfig{
			Brokers:    cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.Topic,
			GroupID:    cfg.Kafka.GroupID,
			MaxRetries: worker.DefaultKafkaMaxRetries,
			Dispatcher: d,
			Logger:     log,
		})
		start, c = consumer.Start, consumer
	case events.DriverPubSub:
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Dispatcher:       d,
			Logger:           log,
		})
		if err != nil {
			return nil, err
		}
		start, c = handler.Start, handler
	default:
		log.Info().Msg("no event transport configured, running on schedule only")
		return nil, nil
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := start(ctx); err != nil {
			errs <- err
		}
	}()
	return c, nil
}

// runSchedule refreshes immediately and then every interval. A non-positive
// interval disables scheduled refreshes.
func runSchedule(ctx context.Context, interval time.Duration, a *app.App, d *worker.Dispatcher, log zerolog.Logger) {
	if interval <= 0 {
		return
	}

	refresh := func() {
		err := d.Dispatch(ctx, events.Event{
			Type:       events.TypeProviderRefresh,
			OccurredAt: a.Clock.Now().UTC(),
		})
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scheduled refresh failed")
		}
	}

	refresh()

	ticker := a.Clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			refresh()
		}
	}
}
