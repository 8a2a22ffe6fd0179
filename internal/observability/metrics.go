package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_runs_total",
			Help: "Total number of processed queries",
		},
		[]string{"mode"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "agentdesk_run_duration_seconds",
			Help: "End-to-end query processing time in seconds",
		},
	)

	AgentExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_agent_executions_total",
			Help: "Total number of agent executions",
		},
		[]string{"agent"},
	)

	CompletionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_completion_fallbacks_total",
			Help: "Completions replaced by static fallback text",
		},
		[]string{"agent"},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)
