package agent

import (
	"context"
	"strings"

	"github.com/rahul/agentdesk/internal/llm"
	"github.com/rahul/agentdesk/internal/observability"
)

// ResearchAgent answers from the completion backend and falls back to a static
// topic table.
type ResearchAgent struct {
	Backend llm.Completer
	Prompts *PromptManager
	Logger  *observability.Logger
	// Web is optional; its output only ever reaches the prompt.
	Web ContextSource
}

func NewResearchAgent(backend llm.Completer, prompts *PromptManager, logger *observability.Logger) *ResearchAgent {
	return &ResearchAgent{Backend: backend, Prompts: prompts, Logger: logger}
}

func (a *ResearchAgent) Capability() Capability { return Research }

func (a *ResearchAgent) Execute(ctx context.Context, st *State) {
	result, err := a.complete(ctx, st)
	if err != nil {
		recordFallback(a.Logger, st.Metadata.RunID, Research, err)
		result = a.Fallback(st.Query)
	}
	st.SetResult(Research, result)
	st.logAction(Research, TaskGatherInformation, result)
}

func (a *ResearchAgent) complete(ctx context.Context, st *State) (string, error) {
	if a.Backend == nil {
		return "", llm.ErrUnavailable
	}
	p := a.Prompts.Prompts().Research

	var webContext string
	if a.Web != nil {
		webContext = a.Web.Gather(ctx, st.Metadata.RunID, st.Query)
	}

	prompt, err := Render(p.Prompt, promptData{Query: st.Query, Context: webContext})
	if err != nil {
		return "", err
	}
	text, err := llm.Complete(ctx, a.Backend, prompt, llm.WithSystem(p.System))
	if err != nil {
		return "", err
	}
	a.Logger.LogLLM(st.Metadata.RunID, string(Research), prompt, text)
	return text, nil
}

// Fallback looks query up in the static topic table, first match in table order,
// and otherwise echoes the query in a generic sentence.
func (a *ResearchAgent) Fallback(query string) string {
	p := a.Prompts.Prompts().Research
	lower := strings.ToLower(query)

	for _, t := range p.Topics {
		if strings.Contains(lower, strings.ToLower(t.Topic)) {
			return p.FallbackPrefix + t.Summary
		}
	}

	generic, err := Render(p.FallbackDefault, promptData{Query: query})
	if err != nil {
		generic = "Found general information about '" + query + "'."
	}
	return p.FallbackPrefix + generic
}
