package tools

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rahul/agentdesk/internal/governance"
	"github.com/rahul/agentdesk/internal/observability"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>)]+`)

// maxPages bounds how many linked pages one query may fetch.
const maxPages = 2

// WebContext gathers search results and linked pages for a query. Every call
// is checked against Policy first; failures are logged and skipped.
type WebContext struct {
	Registry *Registry
	Policy   governance.PolicyEngine
	Logger   *observability.Logger
}

// Gather returns the collected text, or "" when nothing could be fetched.
func (w *WebContext) Gather(ctx context.Context, runID, query string) string {
	var sections []string

	urls := urlPattern.FindAllString(query, maxPages)
	for _, u := range urls {
		u = strings.TrimRight(u, ".,;:!?")
		args, _ := json.Marshal(map[string]string{"url": u})
		if out, ok := w.call(ctx, runID, ScraperToolName, string(args)); ok {
			sections = append(sections, "Page "+u+":\n"+out)
		}
	}

	args, _ := json.Marshal(map[string]string{"query": query})
	if out, ok := w.call(ctx, runID, SearchToolName, string(args)); ok {
		sections = append(sections, "Search results:\n"+out)
	}

	return strings.Join(sections, "\n\n")
}

func (w *WebContext) call(ctx context.Context, runID, name, args string) (string, bool) {
	if w.Registry == nil {
		return "", false
	}
	tool := w.Registry.Get(name)
	if tool == nil {
		return "", false
	}

	if w.Policy != nil {
		res, err := w.Policy.Evaluate(ctx, governance.Request{Tool: name, Arguments: args, RunID: runID})
		if err != nil {
			w.Logger.LogError(runID, "policy", err)
			return "", false
		}
		w.Logger.LogPolicy(runID, name, string(res.Effect), res.Reason)
		if res.Effect != governance.EffectAllow {
			return "", false
		}
	}

	w.Logger.LogToolCall(runID, name, args)
	out, err := tool.Execute(ctx, args)
	if err != nil {
		w.Logger.LogError(runID, name, err)
		return "", false
	}
	out = strings.TrimSpace(out)
	return out, out != ""
}
