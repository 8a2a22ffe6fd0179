package agent

import (
	"context"

	"github.com/rahul/agentdesk/internal/observability"
)

// Executor runs one capability against the shared state and records exactly one
// result under its capability. Executors never fail: every error path has a
// fallback result.
type Executor interface {
	Capability() Capability
	Execute(ctx context.Context, st *State)
}

// ContextSource supplies extra prompt context for a query, e.g. web results.
type ContextSource interface {
	Gather(ctx context.Context, runID, query string) string
}

func recordFallback(logger *observability.Logger, runID string, c Capability, cause error) {
	logger.LogFallback(runID, string(c), cause)
	observability.CompletionFallbacks.WithLabelValues(string(c)).Inc()
}
