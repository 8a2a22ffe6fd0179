package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

var (
	arithmeticFragment = regexp.MustCompile(`[0-9+\-*/().\s]+`)
	digitPattern       = regexp.MustCompile(`\d`)
)

var (
	vizKeywords = []string{"chart", "graph", "visualize", "plot"}
	chartTypes  = []string{"bar chart", "line graph", "pie chart", "scatter plot"}
)

const defaultAnalysis = "📊 Analysis completed: Data patterns and insights identified."

// AnalysisAgent evaluates arithmetic found in the query and fakes chart creation.
type AnalysisAgent struct {
	// PickChart chooses one of the chart types for query. Defaults to a pick
	// keyed on the query hash, so equal queries get equal charts.
	PickChart func(query string, options []string) string
}

func NewAnalysisAgent() *AnalysisAgent {
	return &AnalysisAgent{PickChart: hashPick}
}

func hashPick(query string, options []string) string {
	h := fnv.New32a()
	h.Write([]byte(query))
	return options[h.Sum32()%uint32(len(options))]
}

func (a *AnalysisAgent) Capability() Capability { return Analysis }

func (a *AnalysisAgent) Execute(ctx context.Context, st *State) {
	result := a.Analyze(st.Query)
	st.SetResult(Analysis, result)
	st.logAction(Analysis, TaskProcessData, result)
}

// Analyze returns the " | "-joined analysis fragments for query.
func (a *AnalysisAgent) Analyze(query string) string {
	lower := strings.ToLower(query)
	var results []string

	if (averagePattern.MatchString(lower) || sumPattern.MatchString(lower)) && digitPattern.MatchString(query) {
		results = append(results, Calculate(query))
	} else {
		for _, frag := range arithmeticFragment.FindAllString(query, -1) {
			if !strings.ContainsAny(frag, "+-*/") || !digitPattern.MatchString(frag) {
				continue
			}
			results = append(results, Calculate(frag))
		}
	}

	if containsAny(lower, vizKeywords) {
		pick := a.PickChart
		if pick == nil {
			pick = hashPick
		}
		results = append(results, fmt.Sprintf("📈 Created %s for: %s. Visualization shows clear trends and patterns.", pick(query, chartTypes), query))
	}

	if len(results) == 0 {
		return defaultAnalysis
	}
	return strings.Join(results, " | ")
}
