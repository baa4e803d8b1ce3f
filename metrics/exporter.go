package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// NewMeterProvider builds an OpenTelemetry meter provider for the given
// exporter name and returns it with a meter ready to hand to NewCollector.
// Supported exporters: prometheus, stdout, none (and empty, meaning none).
//
// The prometheus exporter feeds the default Prometheus registry, so Handler
// serves these instruments alongside the package-level counters elsewhere in
// servicekit.
func NewMeterProvider(ctx context.Context, serviceName, version, exporter string) (*sdkmetric.MeterProvider, metric.Meter, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: create resource: %w", err)
	}

	reader, err := newReader(exporter)
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return mp, mp.Meter(serviceName), nil
}

func newReader(exporter string) (sdkmetric.Reader, error) {
	switch exporter {
	case "prometheus":
		exp, err := otelprom.New()
		if err != nil {
			return nil, fmt.Errorf("metrics: create prometheus exporter: %w", err)
		}
		return exp, nil

	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("metrics: create stdout exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "none", "":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	default:
		return nil, fmt.Errorf("metrics: unknown exporter: %q", exporter)
	}
}

// Handler serves the Prometheus scrape endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
