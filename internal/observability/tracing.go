// Package observability provides OpenTelemetry tracing, Prometheus metrics
// and an audit trail for ontology assessments.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the ontometer tracer.
	TracerName = "github.com/efebarandurmaz/ontometer"
)

// TracingConfig configures the OpenTelemetry tracing.
type TracingConfig struct {
	// ServiceName is the name of the service (default: "ontometer")
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, prod)
	Environment string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317")
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// Insecure disables TLS towards the collector.
	Insecure bool

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "ontometer",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	// If no endpoint, return no-op tracer
	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	// Create resource with service info
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	// Set global provider and propagator
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Assessment stages, used as span names and metric labels.
const (
	StageLoad       = "load"
	StageStructural = "structural"
	StageReasoning  = "reasoning"
	StageQueries    = "queries"
	StageLexical    = "lexical"
	StageQuality    = "quality"
	StageGates      = "gates"
)

// StartAssessmentSpan starts the root span of one assessment.
func StartAssessmentSpan(ctx context.Context, id, source string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "assessment",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("ontometer.assessment.id", id),
			attribute.String("ontometer.source", source),
		),
	)
	return ctx, span
}

// StartStageSpan starts a span for one assessment stage.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, fmt.Sprintf("assessment.%s", stage),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("ontometer.stage", stage),
		),
	)
	return ctx, span
}

// RecordGraphSize records the size of the loaded ontology on a span.
func RecordGraphSize(span trace.Span, triples, classes, properties int) {
	span.SetAttributes(
		attribute.Int("ontology.triples", triples),
		attribute.Int("ontology.classes", classes),
		attribute.Int("ontology.properties", properties),
	)
}

// RecordReasoning records the consistency outcome on a span.
func RecordReasoning(span trace.Span, reasoner, outcome string, duration time.Duration) {
	span.SetAttributes(
		attribute.String("reasoner.name", reasoner),
		attribute.String("reasoner.outcome", outcome),
		attribute.Int64("reasoner.duration_ms", duration.Milliseconds()),
	)
	if outcome != "consistent" {
		span.SetStatus(codes.Error, outcome)
	}
}

// RecordGates records the gate pipeline result on a span.
func RecordGates(span trace.Span, status string, passed, failed, warnings int) {
	span.SetAttributes(
		attribute.String("gates.status", status),
		attribute.Int("gates.passed", passed),
		attribute.Int("gates.failed", failed),
		attribute.Int("gates.warnings", warnings),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d gates failed", failed))
	}
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
