package llm

import (
	"context"
	"errors"
)

// ErrRateLimited is reported by providers when the upstream API rejects a
// call for quota reasons. Callers match it with errors.Is.
var ErrRateLimited = errors.New("llm provider rate limited")

// Message is a single chat turn in a provider-agnostic shape
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option tweaks a single call (temperature, token budget, model override)
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
