package servicekit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/mkarlsen/servicekit/cache"
	"github.com/mkarlsen/servicekit/config"
	"github.com/mkarlsen/servicekit/errtrack"
	"github.com/mkarlsen/servicekit/health"
	"github.com/mkarlsen/servicekit/logging"
	"github.com/mkarlsen/servicekit/metrics"
)

// Options identifies the hosting service and selects the metrics exporter.
type Options struct {
	// ServiceName labels telemetry. Default: "servicekit".
	ServiceName string

	// Version labels telemetry.
	Version string

	// MetricsExporter selects the OpenTelemetry exporter
	// (prometheus|stdout|none). Default: prometheus.
	MetricsExporter string
}

// Runtime is the explicitly constructed context object holding every
// subsystem. It is handed to the request pipeline at startup instead of
// living in package-level singletons, so each test builds its own.
type Runtime struct {
	Logger    zerolog.Logger
	Config    config.Config
	Store     *cache.Store
	Sessions  *cache.SessionStore
	Collector *metrics.Collector
	Health    *health.Checker
	Tracker   *errtrack.Tracker

	meterProvider *sdkmetric.MeterProvider
	closeLog      func() error
}

// New wires a Runtime from configuration. Only an unreachable cache or an
// invalid configuration is fatal; everything downstream degrades instead.
// Periodic health sweeps begin immediately and run until Shutdown.
func New(ctx context.Context, cfg config.Config, opts Options) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "servicekit"
	}
	if opts.MetricsExporter == "" {
		opts.MetricsExporter = "prometheus"
	}

	logger, closeLog := logging.Setup(logging.Config{
		Level:    cfg.Logging.Level,
		Pretty:   cfg.Logging.Pretty,
		FilePath: cfg.Logging.FilePath,
	})

	provider, meter, err := metrics.NewMeterProvider(ctx, opts.ServiceName, opts.Version, opts.MetricsExporter)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("meter provider: %w", err)
	}

	collector, err := metrics.NewCollector(metrics.Config{
		Logger: logger,
		Meter:  meter,
	})
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("collector: %w", err)
	}

	store := cache.New(cache.Config{
		Addr:       cfg.Cache.Addr(),
		Password:   cfg.Cache.Password,
		DB:         cfg.Cache.DB,
		DefaultTTL: cfg.Cache.DefaultTTL,
		Logger:     logger,
	})
	if err := store.Connect(ctx); err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("cache connect: %w", err)
	}

	tracker := errtrack.New(errtrack.Config{
		Endpoint:    cfg.Tracker.Endpoint,
		Environment: cfg.Tracker.Environment,
		SampleRate:  cfg.Tracker.SampleRate,
		Logger:      logger,
	})

	checker := health.NewChecker(health.CheckerConfig{Logger: logger})
	checker.Register("cache", func(ctx context.Context) (bool, error) {
		return store.Ping(ctx), nil
	})
	// Sweeps outlive the construction context; Shutdown is their only
	// cancellation path.
	checker.Start(context.WithoutCancel(ctx), cfg.Health.Interval)

	return &Runtime{
		Logger:        logger,
		Config:        cfg,
		Store:         store,
		Sessions:      cache.NewSessionStore(store, 0),
		Collector:     collector,
		Health:        checker,
		Tracker:       tracker,
		meterProvider: provider,
		closeLog:      closeLog,
	}, nil
}

// Middleware returns the standard inbound stack: panic capture outermost,
// then response caching, then request metrics around the handler.
func (r *Runtime) Middleware(cacheCfg cache.HTTPMiddlewareConfig) func(http.Handler) http.Handler {
	caching := cache.HTTPMiddleware(r.Store, cacheCfg)
	capture := r.Tracker.HTTPMiddleware()
	return func(next http.Handler) http.Handler {
		return capture(caching(metrics.HTTPMiddleware(r.Collector)(next)))
	}
}

// RegisterHTTP mounts the operational endpoints: Prometheus metrics and the
// liveness/readiness/detail health handlers.
func (r *Runtime) RegisterHTTP(mux *http.ServeMux) {
	mux.Handle("/metrics", metrics.Handler())
	health.RegisterHandlers(mux, r.Health)
}

// Shutdown stops periodic sweeps, drains pending error forwards, and
// releases the cache connection, telemetry pipeline, and log file.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.Health.Stop()
	r.Tracker.Close()

	return errors.Join(
		r.Store.Close(),
		r.meterProvider.Shutdown(ctx),
		r.closeLog(),
	)
}
