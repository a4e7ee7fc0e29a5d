package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// LLMService is a prompt-in/text-out completion client for one provider.
//
// Implementations include Groq and Cerebras, both over the OpenAI-compatible
// chat completions API.
type LLMService interface {
	// Complete sends a system and user prompt and returns the reply text.
	// Timeouts and API errors are returned wrapped in domain.ErrProviderCallFailed.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Provider returns the provider tag this client serves.
	Provider() domain.Provider

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest configures a single completion call.
type CompletionRequest struct {
	// System is the system prompt.
	System string

	// Prompt is the user prompt.
	Prompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// Timeout bounds the call. Zero means the client default.
	Timeout time.Duration
}
