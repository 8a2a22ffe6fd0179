package agent

var taskNames = map[Capability]string{
	Research: TaskGatherInformation,
	Analysis: TaskProcessData,
	Writing:  TaskCreateContent,
}

// DefaultPlan is used when the classifier finds nothing.
func DefaultPlan() []PlanStep {
	return []PlanStep{
		{Agent: Research, Task: TaskGatherInformation},
		{Agent: Writing, Task: TaskCreateContent},
	}
}

// Plan orders caps as research, analysis, writing, keeping only those present.
// An empty set yields DefaultPlan.
func Plan(caps []Capability) []PlanStep {
	present := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		present[c] = true
	}

	var steps []PlanStep
	for _, c := range capabilityOrder {
		if present[c] {
			steps = append(steps, PlanStep{Agent: c, Task: taskNames[c]})
		}
	}
	if len(steps) == 0 {
		return DefaultPlan()
	}
	return steps
}
