package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the set of Prometheus collectors exposed by the Tool &
// Prompt Server's /metrics side-endpoint, registered once at startup.
type Metrics struct {
	// ContainerAcquires counts acquire() calls by outcome
	// (hit|started|restarted|error).
	ContainerAcquires *prometheus.CounterVec

	// ContainerActive is the current number of containers not in the
	// Absent state.
	ContainerActive prometheus.Gauge

	// ExecInvocations counts execute_bash calls by outcome
	// (success|error|timeout).
	ExecInvocations *prometheus.CounterVec

	// ExecDuration measures wall-clock time of execute_bash calls.
	ExecDuration prometheus.Histogram

	// ArtifactFetches counts get_artifact calls by outcome
	// (success|not_found|path_violation|too_large).
	ArtifactFetches *prometheus.CounterVec

	// PromptCacheResult counts Prompt Cache lookups by outcome
	// (hit|refresh|fallback).
	PromptCacheResult *prometheus.CounterVec

	// ToolCalls counts MCP tool invocations by tool name and outcome.
	ToolCalls *prometheus.CounterVec
}

// NewMetrics registers and returns the application's metric collectors.
// Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		ContainerAcquires: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exec_container_acquires_total",
				Help: "Container Manager acquire() calls by outcome",
			},
			[]string{"outcome"},
		),
		ContainerActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "exec_containers_active",
				Help: "Containers currently not in the Absent state",
			},
		),
		ExecInvocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exec_invocations_total",
				Help: "execute_bash invocations by outcome",
			},
			[]string{"outcome"},
		),
		ExecDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "exec_duration_seconds",
				Help:    "execute_bash wall-clock duration",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		ArtifactFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exec_artifact_fetches_total",
				Help: "get_artifact calls by outcome",
			},
			[]string{"outcome"},
		),
		PromptCacheResult: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exec_prompt_cache_results_total",
				Help: "Prompt Cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		ToolCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exec_mcp_tool_calls_total",
				Help: "MCP tool invocations by tool name and outcome",
			},
			[]string{"tool", "outcome"},
		),
	}
}
