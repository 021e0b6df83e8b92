// Package observe provides application-wide observability primitives for
// the advisor: OpenTelemetry metrics, tracing, structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so metrics can be scraped
// from the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all advisor metrics.
const meterName = "github.com/studyvoice/advisor"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// AnalysisDuration tracks one full transcript analysis pass.
	AnalysisDuration metric.Float64Histogram

	// LLMDuration tracks remote extraction latency.
	LLMDuration metric.Float64Histogram

	// CatalogLoadDuration tracks the one-time catalog fetch and decode.
	CatalogLoadDuration metric.Float64Histogram

	// --- Counters ---

	// ExtractionRuns counts analysis passes. Use with attributes:
	//   attribute.String("stage", "patterns"|"fallback"), attribute.String("status", ...)
	ExtractionRuns metric.Int64Counter

	// Candidates counts extracted course candidates. Use with attribute:
	//   attribute.String("source", "patterns"|"confirmation"|"llm")
	Candidates metric.Int64Counter

	// CoursesBooked counts courses that made it into the store.
	CoursesBooked metric.Int64Counter

	// CandidatesRejected counts candidates dropped during merging. Use with
	// attribute: attribute.String("reason", "confidence"|"generic"|"duplicate")
	CandidatesRejected metric.Int64Counter

	// LLMErrors counts failed remote extraction calls.
	LLMErrors metric.Int64Counter

	// --- Distribution ---

	// MatchConfidence tracks the confidence score of catalog resolutions.
	MatchConfidence metric.Float64Histogram

	// --- Gauges ---

	// EventSubscribers tracks the number of connected event-stream clients.
	EventSubscribers metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// the analysis pass: regex families land in the low milliseconds, the remote
// fallback in whole seconds.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// confidenceBuckets covers the [0, 1] score range.
var confidenceBuckets = []float64{
	0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.AnalysisDuration, err = m.Float64Histogram("advisor.analysis.duration",
		metric.WithDescription("Latency of one transcript analysis pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("advisor.llm.duration",
		metric.WithDescription("Latency of remote extraction calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CatalogLoadDuration, err = m.Float64Histogram("advisor.catalog.load.duration",
		metric.WithDescription("Latency of the catalog fetch and decode."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ExtractionRuns, err = m.Int64Counter("advisor.extraction.runs",
		metric.WithDescription("Total analysis passes by stage and status."),
	); err != nil {
		return nil, err
	}
	if met.Candidates, err = m.Int64Counter("advisor.extraction.candidates",
		metric.WithDescription("Total extracted candidates by source."),
	); err != nil {
		return nil, err
	}
	if met.CoursesBooked, err = m.Int64Counter("advisor.courses.booked",
		metric.WithDescription("Total courses added to the recommendation store."),
	); err != nil {
		return nil, err
	}
	if met.CandidatesRejected, err = m.Int64Counter("advisor.extraction.rejected",
		metric.WithDescription("Total candidates dropped during merging, by reason."),
	); err != nil {
		return nil, err
	}
	if met.LLMErrors, err = m.Int64Counter("advisor.llm.errors",
		metric.WithDescription("Total failed remote extraction calls."),
	); err != nil {
		return nil, err
	}

	// Confidence distribution.
	if met.MatchConfidence, err = m.Float64Histogram("advisor.match.confidence",
		metric.WithDescription("Confidence score of catalog resolutions."),
		metric.WithExplicitBucketBoundaries(confidenceBuckets...),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.EventSubscribers, err = m.Int64UpDownCounter("advisor.events.subscribers",
		metric.WithDescription("Number of connected event-stream clients."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("advisor.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordExtractionRun records one analysis pass with the standard attribute
// set.
func (m *Metrics) RecordExtractionRun(ctx context.Context, stage, status string) {
	m.ExtractionRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
}

// RecordCandidates records n extracted candidates from the given source.
func (m *Metrics) RecordCandidates(ctx context.Context, source string, n int) {
	if n <= 0 {
		return
	}
	m.Candidates.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordRejected records a candidate dropped during merging.
func (m *Metrics) RecordRejected(ctx context.Context, reason string) {
	m.CandidatesRejected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordConfidence records the confidence of one catalog resolution.
func (m *Metrics) RecordConfidence(ctx context.Context, score float64) {
	m.MatchConfidence.Record(ctx, score)
}
