package llm

import (
	"context"
	"errors"
)

const probePrompt = "Hello, this is a test message. Please respond with 'Connection successful.'"

type ProbeStatus string

const (
	ProbeSuccess      ProbeStatus = "success"
	ProbeError        ProbeStatus = "error"
	ProbeUnconfigured ProbeStatus = "unconfigured"
)

// ProbeResult describes a connection test against the completion backend.
type ProbeResult struct {
	Status   ProbeStatus `json:"status"`
	Response string      `json:"response"`
}

// Probe sends a short fixed prompt to c and reports whether it answered.
func Probe(ctx context.Context, c Completer) ProbeResult {
	text, err := Complete(ctx, c, probePrompt, WithMaxTokens(50))
	switch {
	case errors.Is(err, ErrUnavailable):
		return ProbeResult{Status: ProbeUnconfigured, Response: err.Error()}
	case err != nil:
		return ProbeResult{Status: ProbeError, Response: err.Error()}
	}
	return ProbeResult{Status: ProbeSuccess, Response: text}
}
