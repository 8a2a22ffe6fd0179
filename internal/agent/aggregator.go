package agent

import (
	"strings"
	"time"
)

var sectionLabels = map[Capability]string{
	Research: "📚 **Research Findings:**\n",
	Analysis: "📊 **Analysis Results:**\n",
	Writing:  "✍️ **Generated Content:**\n",
}

// AggregateResults renders results in canonical order, one labelled section
// per present capability, separated by a blank line.
func AggregateResults(results map[Capability]string) string {
	var sections []string
	for _, c := range capabilityOrder {
		if r, ok := results[c]; ok {
			sections = append(sections, sectionLabels[c]+r)
		}
	}
	return strings.Join(sections, "\n\n")
}

// Aggregate fills FinalText and closes the run's timing.
func Aggregate(st *State) {
	st.FinalText = AggregateResults(st.Results)
	st.Metadata.EndedAt = time.Now()
	st.Metadata.Duration = st.Metadata.EndedAt.Sub(st.Metadata.StartedAt)
}
