package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rahul/agentdesk/internal/store"
)

// Brain defines the core intelligence interface the chat gateways talk to.
type Brain interface {
	Think(ctx context.Context, chatID string, input string) (string, error)
}

type HistoryStore interface {
	AddRun(run store.Run) error
	RecentRuns(limit int) ([]store.Run, error)
	ClearRuns() error
	AddMessage(chatID string, role string, content string) error
}

type Mode string

const (
	ModeMulti  Mode = "multi"
	ModeSingle Mode = "single"
)

var ErrEmptyQuery = errors.New("query is empty")

// ParseMode accepts the mode names used by the CLI and the web form. The empty
// string selects multi-agent mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multi", "multi-agent":
		return ModeMulti, nil
	case "single", "simple", "single-agent":
		return ModeSingle, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Outcome is the answer to one query in either mode. State is only set in
// multi-agent mode.
type Outcome struct {
	ID       string        `json:"id"`
	Mode     Mode          `json:"mode"`
	Query    string        `json:"query"`
	Answer   string        `json:"answer"`
	State    *State        `json:"state,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Desk is the entry point shared by the CLI, the web UI and the chat gateways.
type Desk struct {
	Coordinator *Coordinator
	Simple      *SimpleAgent
	Store       HistoryStore
	Logger      *observability.Logger
}

func (d *Desk) Process(ctx context.Context, mode Mode, query string) (*Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	var out *Outcome
	switch mode {
	case ModeSingle:
		start := time.Now()
		observability.SetStatus(observability.RoleAgent, "single: "+query)
		answer := d.Simple.Process(ctx, query)
		observability.SetStatus(observability.RoleIdle, "")
		out = &Outcome{
			ID:       uuid.NewString(),
			Mode:     mode,
			Query:    query,
			Answer:   answer,
			Duration: time.Since(start),
		}
		d.record(out, start)
	case ModeMulti:
		st := d.Coordinator.Run(ctx, query)
		out = &Outcome{
			ID:       st.Metadata.RunID,
			Mode:     mode,
			Query:    query,
			Answer:   st.FinalText,
			State:    st,
			Duration: st.Metadata.Duration,
		}
		d.record(out, st.Metadata.StartedAt)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	observability.RunsTotal.WithLabelValues(string(mode)).Inc()
	return out, nil
}

// Think answers a chat message in multi-agent mode.
func (d *Desk) Think(ctx context.Context, chatID string, input string) (string, error) {
	if d.Store != nil {
		if err := d.Store.AddMessage(chatID, "human", input); err != nil {
			d.Logger.LogError("", "history", err)
		}
	}

	out, err := d.Process(ctx, ModeMulti, input)
	if err != nil {
		return "", err
	}

	if d.Store != nil {
		if err := d.Store.AddMessage(chatID, "ai", out.Answer); err != nil {
			d.Logger.LogError(out.ID, "history", err)
		}
	}
	return out.Answer, nil
}

// RecentRuns returns up to limit stored runs, newest first.
func (d *Desk) RecentRuns(limit int) ([]store.Run, error) {
	if d.Store == nil {
		return nil, nil
	}
	return d.Store.RecentRuns(limit)
}

func (d *Desk) ClearHistory() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.ClearRuns()
}

// record stores out in the history. Failures are logged, never surfaced.
func (d *Desk) record(out *Outcome, startedAt time.Time) {
	if d.Store == nil {
		return
	}
	run := store.Run{
		ID:        out.ID,
		Mode:      string(out.Mode),
		Query:     out.Query,
		FinalText: out.Answer,
		StartedAt: startedAt,
		Duration:  out.Duration,
	}
	if st := out.State; st != nil {
		for _, s := range st.Plan {
			run.Plan = append(run.Plan, store.Step{Agent: string(s.Agent), Task: s.Task})
		}
		run.Results = make(map[string]string, len(st.Results))
		for c, r := range st.Results {
			run.Results[string(c)] = r
		}
		for _, a := range st.Metadata.AgentsUsed {
			run.AgentsUsed = append(run.AgentsUsed, string(a))
		}
	}
	if err := d.Store.AddRun(run); err != nil {
		d.Logger.LogError(out.ID, "history", err)
	}
}
