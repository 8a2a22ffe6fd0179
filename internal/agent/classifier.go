package agent

import "strings"

// Keyword lists are matched as literal, case-insensitive substrings.
var keywords = map[Capability][]string{
	Research: {"what is", "tell me about", "research", "find information", "explain"},
	Analysis: {"calculate", "analyze", "compare", "statistics", "average", "sum", "+", "-", "*", "/"},
	Writing:  {"write", "create", "generate", "summarize", "report", "document"},
}

// Classify returns the capabilities whose keyword list matches query, in
// canonical order. Queries without any keyword yield an empty slice.
func Classify(query string) []Capability {
	lower := strings.ToLower(query)

	var caps []Capability
	for _, c := range capabilityOrder {
		if containsAny(lower, keywords[c]) {
			caps = append(caps, c)
		}
	}
	return caps
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
