package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer for the orchestrator's two long-lived
// workflows (Office iterations, Panel turns) plus their shared LLM/tool
// primitives.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// TraceConfig configures OTLP export. An empty Endpoint yields a no-op
// tracer rather than failing startup (matches runtimeconfig's
// never-fail-startup posture).
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	SamplingRate   float64
	EnableInsecure bool
}

// NewTracer builds a Tracer from config. Returns a shutdown func that must
// be called on exit; it is a no-op when tracing was never enabled.
func NewTracer(config TraceConfig) (*Tracer, func(context.Context) error) {
	if config.ServiceName == "" {
		config.ServiceName = "orchestratord"
	}
	if config.Endpoint == "" {
		return &Tracer{tracer: otel.Tracer(config.ServiceName)}, noopShutdown
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}
	if config.EnableInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return &Tracer{tracer: otel.Tracer(config.ServiceName)}, noopShutdown
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	}
	if config.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(config.Environment))
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		res = resource.Default()
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate <= 0:
		sampler = sdktrace.AlwaysSample()
	case config.SamplingRate >= 1:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return &Tracer{provider: provider, tracer: provider.Tracer(config.ServiceName)},
		provider.Shutdown
}

func noopShutdown(context.Context) error { return nil }

// Start opens a span named name on ctx.
func (t *Tracer) Start(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(kind)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return t.tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed with err, a no-op when err is nil.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceOfficeIteration opens a span around one Office Manager iteration.
func (t *Tracer) TraceOfficeIteration(ctx context.Context, iteration int) (context.Context, trace.Span) {
	return t.Start(ctx, "office.iteration", trace.SpanKindInternal,
		attribute.Int("office.iteration", iteration))
}

// TracePanelTurn opens a span around one Panel discussion turn.
func (t *Tracer) TracePanelTurn(ctx context.Context, turn int) (context.Context, trace.Span) {
	return t.Start(ctx, "panel.turn", trace.SpanKindInternal,
		attribute.Int("panel.turn", turn))
}

// TraceLLMRequest opens a span around one chat client round trip.
func (t *Tracer) TraceLLMRequest(ctx context.Context, sessionKind, sessionID string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("llm.%s", sessionKind), trace.SpanKindClient,
		attribute.String("llm.session_kind", sessionKind),
		attribute.String("llm.session_id", sessionID))
}

// TraceToolExecution opens a span around one brokered tool call.
func (t *Tracer) TraceToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("tool.%s", toolName), trace.SpanKindInternal,
		attribute.String("tool.name", toolName))
}

// WithSpan runs fn inside a span, recording any returned error.
func WithSpan(ctx context.Context, t *Tracer, name string, kind trace.SpanKind, fn func(context.Context, trace.Span) error) error {
	ctx, span := t.Start(ctx, name, kind)
	defer span.End()
	err := fn(ctx, span)
	t.RecordError(span, err)
	return err
}
