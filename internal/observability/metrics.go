// Package observability wires the Prometheus/OpenTelemetry ambient stack
// (SPEC_FULL.md §2.1) into the orchestrator: counters/gauges/histograms for
// Office and Panel activity, plus OTLP tracing spans for LLM calls and tool
// executions. Grounded in the teacher's internal/observability package,
// trimmed to this orchestrator's domain (no channel/webhook/HTTP-route
// metrics, since those concerns belong to chat-channel transports the spec
// excludes).
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics centralizes every Prometheus collector the orchestrator emits.
// Construct exactly once per process with NewMetrics; NewMetrics registers
// with the default registry and will panic if called twice.
type Metrics struct {
	// OfficeIterations counts completed Office iterations by outcome
	// (success|error|retry).
	OfficeIterations *prometheus.CounterVec

	// OfficeIterationDuration measures one Office iteration's wall time.
	OfficeIterationDuration prometheus.Histogram

	// OfficeAssistantsActive gauges the Assistant Pool's current occupancy.
	OfficeAssistantsActive prometheus.Gauge

	// ToolApprovalDecisions counts approval resolutions by outcome
	// (approved|denied|error).
	ToolApprovalDecisions *prometheus.CounterVec

	// PanelTurns counts completed Panel turns by discussion phase outcome
	// (continued|converged|forced).
	PanelTurns *prometheus.CounterVec

	// PanelConvergenceScore observes each heuristic convergence evaluation.
	PanelConvergenceScore prometheus.Histogram

	// PanelsActive gauges how many Panel discussions are currently Running.
	PanelsActive prometheus.Gauge

	// LLMRequestDuration measures chat client round-trip latency by session
	// kind (office-manager|office-assistant|panel-head|panel-moderator|
	// panel-panelist).
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestErrors counts transport failures by session kind.
	LLMRequestErrors *prometheus.CounterVec
}

// NewMetrics creates and registers every collector with the default
// Prometheus registry. Call once at process startup.
func NewMetrics() *Metrics {
	return &Metrics{
		OfficeIterations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_office_iterations_total",
			Help: "Completed Office iterations by outcome.",
		}, []string{"outcome"}),

		OfficeIterationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orchestrator_office_iteration_duration_seconds",
			Help:    "Office iteration wall-clock duration in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		OfficeAssistantsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orchestrator_office_assistants_active",
			Help: "Currently running Office assistants.",
		}),

		ToolApprovalDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_tool_approval_decisions_total",
			Help: "Tool approval requests resolved, by outcome.",
		}, []string{"outcome"}),

		PanelTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_panel_turns_total",
			Help: "Completed Panel discussion turns, by outcome.",
		}, []string{"outcome"}),

		PanelConvergenceScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orchestrator_panel_convergence_score",
			Help:    "Heuristic convergence score observed per evaluation.",
			Buckets: []float64{20, 40, 60, 70, 80, 90, 100},
		}),

		PanelsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orchestrator_panels_active",
			Help: "Currently Running Panel discussions.",
		}),

		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orchestrator_llm_request_duration_seconds",
			Help:    "Chat client round-trip duration in seconds, by session kind.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"session_kind"}),

		LLMRequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_llm_request_errors_total",
			Help: "Chat client transport errors, by session kind.",
		}, []string{"session_kind"}),
	}
}

// RecordOfficeIteration records one completed Office iteration.
func (m *Metrics) RecordOfficeIteration(outcome string, durationSeconds float64) {
	m.OfficeIterations.WithLabelValues(outcome).Inc()
	m.OfficeIterationDuration.Observe(durationSeconds)
}

// RecordToolApproval records one resolved approval request.
func (m *Metrics) RecordToolApproval(outcome string) {
	m.ToolApprovalDecisions.WithLabelValues(outcome).Inc()
}

// RecordPanelTurn records one completed Panel turn.
func (m *Metrics) RecordPanelTurn(outcome string) {
	m.PanelTurns.WithLabelValues(outcome).Inc()
}

// RecordConvergenceScore records one heuristic convergence evaluation.
func (m *Metrics) RecordConvergenceScore(score int) {
	m.PanelConvergenceScore.Observe(float64(score))
}

// RecordLLMRequest records one chat client round trip.
func (m *Metrics) RecordLLMRequest(sessionKind string, durationSeconds float64, err error) {
	m.LLMRequestDuration.WithLabelValues(sessionKind).Observe(durationSeconds)
	if err != nil {
		m.LLMRequestErrors.WithLabelValues(sessionKind).Inc()
	}
}
