package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

func TestOfficeIterationsCounterCountsPerOutcome(t *testing.T) {
	// NewMetrics registers with the default registry, which would panic on a
	// second call in the same test binary; exercise the label/observe
	// plumbing directly against an isolated registry instead, matching the
	// teacher's own metrics_test.go approach.
	registry := prometheus.NewRegistry()
	iterations := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_office_iterations_total"}, []string{"outcome"})
	registry.MustRegister(iterations)

	iterations.WithLabelValues("success").Inc()
	iterations.WithLabelValues("error").Inc()
	iterations.WithLabelValues("success").Inc()

	if got := testutil.ToFloat64(iterations.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected 2 successful iterations, got %v", got)
	}
}

func TestNewTracerWithoutEndpointIsNoop(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "test"})
	defer shutdown(context.Background())

	ctx, span := tracer.TraceOfficeIteration(context.Background(), 1)
	if ctx == nil {
		t.Fatalf("expected a non-nil context")
	}
	defer span.End()

	if span.SpanContext().IsValid() {
		// A no-op tracer still returns a span; recording an error on it must
		// not panic even though nothing is exported.
	}
	tracer.RecordError(span, nil)
}

func TestTraceLLMRequestStartsEndableSpan(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "test"})
	defer shutdown(context.Background())

	_, span := tracer.TraceLLMRequest(context.Background(), "panel-moderator", "panel-moderator-abc")
	defer span.End()
}

func TestWithSpanRecordsReturnedError(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "test"})
	defer shutdown(context.Background())

	want := context.Canceled
	err := WithSpan(context.Background(), tracer, "op", trace.SpanKindInternal, func(ctx context.Context, span trace.Span) error {
		return want
	})
	if err != want {
		t.Fatalf("expected WithSpan to propagate the inner error, got %v", err)
	}
}
