package agent

import (
	"context"
	"fmt"

	"github.com/rahul/agentdesk/internal/observability"
)

type route int

const (
	routeContinue route = iota
	routeFinalize
)

// Coordinator plans a query, dispatches the plan to its executors in order and
// aggregates their results.
type Coordinator struct {
	executors map[Capability]Executor
	Logger    *observability.Logger
}

func NewCoordinator(logger *observability.Logger, executors ...Executor) *Coordinator {
	c := &Coordinator{
		executors: make(map[Capability]Executor, len(executors)),
		Logger:    logger,
	}
	for _, e := range executors {
		c.executors[e.Capability()] = e
	}
	return c
}

// Run executes the full pipeline for query. It never fails: executors always
// produce a result, falling back to static text when the backend does.
func (c *Coordinator) Run(ctx context.Context, query string) *State {
	st := NewState(query)
	runID := st.Metadata.RunID

	observability.SetStatus(observability.RoleCoordinator, "planning: "+query)
	defer observability.SetStatus(observability.RoleIdle, "")

	st.Plan = Plan(Classify(query))
	st.Metadata.TotalSteps = len(st.Plan)
	c.Logger.LogPlan(runID, query, st.Plan)

	for {
		step, r := c.nextRoute(st)
		if r == routeFinalize {
			break
		}
		c.dispatch(ctx, st, step)
		if c.shouldContinue(st) == routeFinalize {
			break
		}
	}

	Aggregate(st)

	agents := make([]string, len(st.Metadata.AgentsUsed))
	for i, a := range st.Metadata.AgentsUsed {
		agents[i] = string(a)
	}
	c.Logger.LogResult(runID, agents, st.Metadata.Duration)
	observability.RunDuration.Observe(st.Metadata.Duration.Seconds())

	return st
}

// nextRoute takes the step under the cursor and advances it.
func (c *Coordinator) nextRoute(st *State) (PlanStep, route) {
	if st.Cursor >= len(st.Plan) {
		return PlanStep{}, routeFinalize
	}
	step := st.Plan[st.Cursor]
	st.Cursor++
	return step, routeContinue
}

// shouldContinue runs between steps. The plan is fixed for the whole run, so
// only the cursor decides.
func (c *Coordinator) shouldContinue(st *State) route {
	if st.Cursor < len(st.Plan) {
		return routeContinue
	}
	return routeFinalize
}

func (c *Coordinator) dispatch(ctx context.Context, st *State, step PlanStep) {
	runID := st.Metadata.RunID

	exec, ok := c.executors[step.Agent]
	if !ok {
		c.Logger.LogFallback(runID, string(step.Agent), fmt.Errorf("no executor registered for %q", step.Agent))
		return
	}
	if _, done := st.Result(step.Agent); done {
		return
	}

	c.Logger.LogStep(runID, st.Cursor, string(step.Agent), step.Task)
	observability.SetStatus(observability.RoleAgent, string(step.Agent)+": "+step.Task)
	observability.AgentExecutions.WithLabelValues(string(step.Agent)).Inc()

	exec.Execute(ctx, st)
}
