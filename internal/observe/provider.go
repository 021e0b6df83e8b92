package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderConfig configures the telemetry providers installed by
// [InitProvider].
type ProviderConfig struct {
	// ServiceName identifies this service in exported telemetry.
	// Default: "advisor".
	ServiceName string

	// ServiceVersion is attached to the telemetry resource. Usually the
	// build version injected via -ldflags.
	ServiceVersion string

	// TraceExporter receives finished spans. Leave nil to keep spans
	// in-process only; correlation IDs and span attributes still work, the
	// spans are just never shipped anywhere.
	TraceExporter sdktrace.SpanExporter
}

// newResource describes the running service for exported telemetry.
func newResource(cfg ProviderConfig) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
}

// InitProvider installs the global OpenTelemetry providers: a meter provider
// backed by the Prometheus exporter (scraped via /metrics), a tracer provider
// with the configured span exporter, and the W3C trace-context propagator so
// incoming traceparent headers join an existing trace.
//
// The returned shutdown function flushes and closes the providers; defer it
// from main with a short timeout.
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "advisor"
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.TraceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(cfg.TraceExporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	shutdown = func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}
	return shutdown, nil
}
