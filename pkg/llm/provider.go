// Package llm provides abstractions for LLM provider integration.
//
// Providers handle API communication with LLM services and return simple
// StreamChunk instances. The writer layer is responsible for turning
// completions into document drafts; this separation keeps providers
// reusable and testable on their own.
package llm

import (
	"context"

	"github.com/entrhq/scribe/pkg/types"
)

// StreamChunk is one piece of a streamed completion.
type StreamChunk struct {
	// Role is set on the first chunk of a response (e.g. "assistant").
	Role string

	// Content is the text delta carried by this chunk.
	Content string

	// Finished marks the final chunk of a successful stream.
	Finished bool

	// Error is set when the stream failed mid-flight.
	Error error
}

// IsError returns true if the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}

// ModelCloner is an optional interface providers can implement to support
// lightweight per-call model overrides without constructing a full second
// provider. The returned provider shares credentials and transport with the
// original but directs calls to the given model.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}

// Provider defines the interface for LLM integrations.
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response
	// chunks. The first chunk typically has Role set, subsequent chunks carry
	// Content deltas, the final chunk has Finished=true, and error chunks
	// have Error set. The channel is closed when streaming completes or an
	// error occurs; callers should read until it is closed.
	//
	// Returns an error only if streaming cannot be initiated. Stream-time
	// errors are sent as chunks with Error set.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the full response. It
	// is a convenience wrapper around StreamCompletion for non-streaming use.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo returns information about the model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string

	// GetAPIKey returns the API key being used for authentication.
	GetAPIKey() string
}
