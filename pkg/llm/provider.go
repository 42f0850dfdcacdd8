package llm

import (
	"context"
	"errors"
)

// ErrProviderUnavailable signals that the backend failed before producing any
// output. Mid-stream failures are reported on the stream itself so partial
// answers can still be finalized.
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamChunk is one incremental fragment of a model response. The stream is
// lazy, finite and non-restartable: a chunk with Done or Err set is the last
// one, after which the channel is closed.
type StreamChunk struct {
	Delta string
	Done  bool
	Err   error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
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

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// ChatStream sends a chat history to the model and returns an incremental
	// fragment stream. Failure to open the stream returns a
	// ErrProviderUnavailable-wrapped error and no channel.
	ChatStream(ctx context.Context, history []Message, options ...Option) (<-chan StreamChunk, error)
}

// ApplyOptions folds functional options over provider defaults.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
