package agent

import (
	"context"
	"strings"

	"github.com/rahul/agentdesk/internal/llm"
	"github.com/rahul/agentdesk/internal/observability"
)

var mathKeywords = []string{"calculate", "what is", "+", "-", "*", "/", "plus", "minus", "times"}

var operatorWords = strings.NewReplacer(
	" plus ", " + ",
	" minus ", " - ",
	" times ", " * ",
	" divided by ", " / ",
)

type cannedReply struct {
	pattern string
	reply   string
}

// Checked in order; "hi" would otherwise shadow longer patterns.
var cannedReplies = []cannedReply{
	{"how are you", "I'm doing great! I'm a helpful AI agent that can chat and do math calculations."},
	{"who are you", "I'm a simple desk agent. I can help with conversations and mathematical calculations!"},
	{"hello", "Hello! How can I help you today? I can chat or help with math calculations."},
	{"hi", "Hi there! How can I help you today? I can chat or help with math calculations."},
}

const (
	defaultReply  = "I'm a helpful AI assistant. I can help with math calculations and simple conversations!"
	noMathReply   = "I couldn't find a math expression to calculate."
	mathReplyHead = "The answer is: "
)

// SimpleAgent is the single-agent mode: arithmetic or small talk.
type SimpleAgent struct {
	Backend llm.Completer
	Prompts *PromptManager
	Logger  *observability.Logger
}

func NewSimpleAgent(backend llm.Completer, prompts *PromptManager, logger *observability.Logger) *SimpleAgent {
	return &SimpleAgent{Backend: backend, Prompts: prompts, Logger: logger}
}

// NeedsMath reports whether query has a digit and a math keyword.
func NeedsMath(query string) bool {
	lower := strings.ToLower(query)
	return digitPattern.MatchString(lower) && containsAny(lower, mathKeywords)
}

func (a *SimpleAgent) Process(ctx context.Context, query string) string {
	if NeedsMath(query) {
		return a.math(query)
	}
	return a.chat(ctx, query)
}

func (a *SimpleAgent) math(query string) string {
	normalized := operatorWords.Replace(strings.ToLower(query))
	for _, frag := range arithmeticFragment.FindAllString(normalized, -1) {
		if digitPattern.MatchString(frag) {
			return mathReplyHead + Calculate(strings.TrimSpace(frag))
		}
	}
	return noMathReply
}

func (a *SimpleAgent) chat(ctx context.Context, query string) string {
	if a.Backend != nil {
		var system string
		if a.Prompts != nil {
			system = a.Prompts.Prompts().Chat.System
		}
		text, err := llm.Complete(ctx, a.Backend, query, llm.WithSystem(system))
		if err == nil {
			a.Logger.LogLLM("", "chat", query, text)
			return text
		}
		a.Logger.LogFallback("", "chat", err)
		observability.CompletionFallbacks.WithLabelValues("chat").Inc()
	}
	return CannedReply(query)
}

// CannedReply answers small talk without a backend.
func CannedReply(query string) string {
	lower := strings.ToLower(query)
	for _, c := range cannedReplies {
		if strings.Contains(lower, c.pattern) {
			return c.reply
		}
	}
	return defaultReply
}
