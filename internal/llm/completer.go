// Package llm provides the text-completion capability used by the agents. A nil
// Completer is a valid value and means no backend is configured.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when no completion backend is configured.
	ErrUnavailable = errors.New("llm: completion backend not configured")
	// ErrEmptyResponse is returned when the backend answered without any text.
	ErrEmptyResponse = errors.New("llm: empty completion")
)

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// Options carries the per-request generation settings.
type Options struct {
	System      string
	MaxTokens   int
	Temperature float64
	Model       string
}

type Option func(*Options)

func WithSystem(system string) Option {
	return func(o *Options) { o.System = system }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// apply returns a copy of the defaults with opts applied on top.
func (o Options) apply(opts []Option) Options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Complete calls c, treating a nil Completer as an unconfigured backend.
func Complete(ctx context.Context, c Completer, prompt string, opts ...Option) (string, error) {
	if c == nil {
		return "", ErrUnavailable
	}
	return c.Complete(ctx, prompt, opts...)
}
