package agent

import (
	"time"

	"github.com/google/uuid"
)

// Capability names the executor a plan step invokes.
type Capability string

const (
	Research Capability = "research"
	Analysis Capability = "analysis"
	Writing  Capability = "writing"
)

// capabilityOrder is the canonical evaluation and aggregation order.
var capabilityOrder = []Capability{Research, Analysis, Writing}

// Task names, one per capability.
const (
	TaskGatherInformation = "gather_information"
	TaskProcessData       = "process_data"
	TaskCreateContent     = "create_content"
)

// PlanStep is one agent invocation in a plan.
type PlanStep struct {
	Agent Capability `json:"agent"`
	Task  string     `json:"task"`
}

// Action is one entry of the per-run agent action log.
type Action struct {
	Timestamp time.Time  `json:"timestamp"`
	Agent     Capability `json:"agent"`
	Action    string     `json:"action"`
	Result    string     `json:"result"`
}

// Metadata describes a run.
type Metadata struct {
	RunID      string        `json:"run_id"`
	AgentsUsed []Capability  `json:"agents_used"`
	TotalSteps int           `json:"total_steps"`
	StartedAt  time.Time     `json:"started_at"`
	EndedAt    time.Time     `json:"ended_at,omitzero"`
	Duration   time.Duration `json:"duration"`
}

// State is threaded through every stage of one run. It is owned by a single
// goroutine and needs no locking.
type State struct {
	Query     string                `json:"query"`
	Plan      []PlanStep            `json:"plan"`
	Results   map[Capability]string `json:"results"`
	Cursor    int                   `json:"cursor"`
	FinalText string                `json:"final_text"`
	Metadata  Metadata              `json:"metadata"`
	Actions   []Action              `json:"actions"`
}

func NewState(query string) *State {
	return &State{
		Query:   query,
		Results: make(map[Capability]string),
		Metadata: Metadata{
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
		},
	}
}

// SetResult stores the result for c. A capability is written at most once per
// run; later writes are dropped and reported as false.
func (s *State) SetResult(c Capability, result string) bool {
	if _, ok := s.Results[c]; ok {
		return false
	}
	s.Results[c] = result
	return true
}

// Result returns the stored result for c.
func (s *State) Result(c Capability) (string, bool) {
	r, ok := s.Results[c]
	return r, ok
}

// logAction appends to the action log and records c in AgentsUsed once.
func (s *State) logAction(c Capability, action, result string) {
	s.Actions = append(s.Actions, Action{
		Timestamp: time.Now(),
		Agent:     c,
		Action:    action,
		Result:    result,
	})
	for _, used := range s.Metadata.AgentsUsed {
		if used == c {
			return
		}
	}
	s.Metadata.AgentsUsed = append(s.Metadata.AgentsUsed, c)
}
