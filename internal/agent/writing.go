package agent

import (
	"context"
	"strings"

	"github.com/rahul/agentdesk/internal/llm"
	"github.com/rahul/agentdesk/internal/observability"
)

const (
	StyleInformative = "informative"
	StyleSummary     = "summary"
	StyleTechnical   = "technical"
	StyleCreative    = "creative"
)

// WritingAgent generates content in a style picked from the query.
type WritingAgent struct {
	Backend llm.Completer
	Prompts *PromptManager
	Logger  *observability.Logger
}

func NewWritingAgent(backend llm.Completer, prompts *PromptManager, logger *observability.Logger) *WritingAgent {
	return &WritingAgent{Backend: backend, Prompts: prompts, Logger: logger}
}

func (a *WritingAgent) Capability() Capability { return Writing }

// SelectStyle picks summary, technical or creative, in that priority, by
// substring; anything else is informative.
func SelectStyle(query string) string {
	lower := strings.ToLower(query)
	for _, style := range []string{StyleSummary, StyleTechnical, StyleCreative} {
		if strings.Contains(lower, style) {
			return style
		}
	}
	return StyleInformative
}

func (a *WritingAgent) Execute(ctx context.Context, st *State) {
	style := SelectStyle(st.Query)
	sp := a.Prompts.Style(style)
	data := promptData{Query: st.Query}

	content, err := a.complete(ctx, st, sp, data)
	if err != nil {
		recordFallback(a.Logger, st.Metadata.RunID, Writing, err)
		content, err = Render(sp.Fallback, data)
		if err != nil {
			content = st.Query
		}
	}

	if research, ok := st.Result(Research); ok {
		content += "\n\nBased on research findings: " + research
	}

	st.SetResult(Writing, content)
	st.logAction(Writing, TaskCreateContent+":"+style, content)
}

func (a *WritingAgent) complete(ctx context.Context, st *State, sp StylePrompt, data promptData) (string, error) {
	if a.Backend == nil {
		return "", llm.ErrUnavailable
	}
	prompt, err := Render(sp.Prompt, data)
	if err != nil {
		return "", err
	}
	text, err := llm.Complete(ctx, a.Backend, prompt, llm.WithSystem(a.Prompts.Prompts().Writing.System))
	if err != nil {
		return "", err
	}
	a.Logger.LogLLM(st.Metadata.RunID, string(Writing), prompt, text)
	return text, nil
}
