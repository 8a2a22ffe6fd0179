package store

import "time"

// Step is one planned agent invocation.
type Step struct {
	Agent string `json:"agent"`
	Task  string `json:"task"`
}

// Run is one processed query as kept in the history.
type Run struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	Query      string            `json:"query"`
	Plan       []Step            `json:"plan,omitempty"`
	Results    map[string]string `json:"results,omitempty"`
	AgentsUsed []string          `json:"agents_used,omitempty"`
	FinalText  string            `json:"final_text"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
}
