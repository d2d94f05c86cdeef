// Package observability installs the OpenTelemetry tracer provider used by
// the HTTP middleware, the services, and the GORM tracing plugin.
package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-country-cache/internal/config"
)

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// refreshSpanNames are root spans of a refresh run: the service entry point
// (CLI refresh) and the pipeline steps.
var refreshSpanNames = map[string]bool{
	"Refresh":   true,
	"Reconcile": true,
	"FetchAll":  true,
}

// refreshRoute is the suffix of the otelgin span name for the refresh
// endpoint, whatever the API base path.
const refreshRoute = "/countries/refresh"

// refreshSampler keeps every refresh trace and samples the remaining root
// spans at the configured ratio. Refreshes are rare and are the only writes,
// while reads are high-volume.
type refreshSampler struct {
	reads sdktrace.Sampler
}

// ShouldSample implements sdktrace.Sampler.
func (s refreshSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if refreshSpanNames[p.Name] || strings.HasSuffix(p.Name, refreshRoute) {
		return sdktrace.AlwaysSample().ShouldSample(p)
	}
	return s.reads.ShouldSample(p)
}

// Description implements sdktrace.Sampler.
func (s refreshSampler) Description() string {
	return "RefreshAlways{" + s.reads.Description() + "}"
}

// newSampler follows the parent decision for child spans and applies
// refreshSampler to roots.
func newSampler(ratio float64) sdktrace.Sampler {
	return sdktrace.ParentBased(refreshSampler{reads: sdktrace.TraceIDRatioBased(ratio)})
}

// SetupOTel configures OpenTelemetry tracing and returns a shutdown function.
// When tracing is disabled the global no-op provider stays in place, so spans
// opened by the refresh pipeline cost nothing.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(newSampler(cfg.SampleRatio)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// ShutdownWithTimeout flushes pending spans, bounded by timeout. It is meant
// to be deferred by short-lived commands such as a one-shot refresh.
func ShutdownWithTimeout(shutdown func(context.Context) error, timeout time.Duration) error {
	if shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return shutdown(ctx)
}
