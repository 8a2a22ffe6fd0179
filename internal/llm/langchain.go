package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// UsageFunc receives token accounting reported by the backend.
type UsageFunc func(model string, promptTokens, completionTokens int)

// LangChain adapts a langchaingo model to Completer.
type LangChain struct {
	Model    llms.Model
	Defaults Options
	OnUsage  UsageFunc
}

func NewLangChain(model llms.Model, defaults Options) *LangChain {
	return &LangChain{Model: model, Defaults: defaults}
}

// NewLangChainOpenAI builds a LangChain completer for an OpenAI-compatible endpoint.
func NewLangChainOpenAI(apiKey, model, baseURL string, timeout time.Duration, defaults Options) (*LangChain, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init langchain openai client: %w", err)
	}
	if defaults.Model == "" {
		defaults.Model = model
	}
	return NewLangChain(m, defaults), nil
}

func (c *LangChain) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := c.Defaults.apply(opts)

	var messages []llms.MessageContent
	if o.System != "" {
		messages = append(messages, llms.MessageContent{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(o.System)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})

	callOpts := []llms.CallOption{
		llms.WithMaxTokens(o.MaxTokens),
		llms.WithTemperature(o.Temperature),
	}
	if o.Model != "" {
		callOpts = append(callOpts, llms.WithModel(o.Model))
	}

	resp, err := c.Model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	choice := resp.Choices[0]
	if c.OnUsage != nil {
		c.OnUsage(o.Model, intInfo(choice.GenerationInfo, "PromptTokens"), intInfo(choice.GenerationInfo, "CompletionTokens"))
	}

	text := strings.TrimSpace(choice.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
