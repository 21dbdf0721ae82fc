package domain

import "context"

// ChatMessage is a single role/content pair sent to an LLM provider.
type ChatMessage struct {
	Role    string
	Content string
}

// LLMChunk is one incremental piece of a streamed generation.
type LLMChunk struct {
	Text string
	Done bool
}

// LLMClient defines the capability to send prompts to an LLM and receive
// textual responses, either as a single completion or as a token stream.
type LLMClient interface {
	// Generate returns a full completion; used for non-streaming callers
	// (e.g. the intent classification prompt).
	Generate(ctx context.Context, prompt string, maxTokens int) (*LLMResponse, error)

	// ChatStream streams a completion token-by-token. The returned channels
	// close together; at most one of them yields a final value before close.
	ChatStream(ctx context.Context, messages []ChatMessage, maxTokens int) (<-chan LLMChunk, <-chan error, error)

	Version() string
}

// LLMResponse carries the LLM output and whether the generation finished.
type LLMResponse struct {
	Text string
	Done bool
}
