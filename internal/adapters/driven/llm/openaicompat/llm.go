// Package openaicompat provides LLM clients for providers that expose the
// OpenAI chat completions API (Groq, Cerebras).
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultTimeout bounds calls whose request carries no timeout.
const DefaultTimeout = 60 * time.Second

// Preset holds the endpoint and default model for a provider.
type Preset struct {
	BaseURL string
	Model   string
}

// Presets for the supported providers.
var Presets = map[domain.Provider]Preset{
	domain.ProviderGroq:     {BaseURL: "https://api.groq.com/openai/v1", Model: "openai/gpt-oss-120b"},
	domain.ProviderCerebras: {BaseURL: "https://api.cerebras.ai/v1", Model: "llama3.1-70b"},
}

// Config holds configuration for one provider client.
type Config struct {
	// Provider selects the preset and tags the client.
	Provider domain.Provider

	// APIKey is the provider API key (required).
	APIKey string

	// BaseURL overrides the preset endpoint.
	BaseURL string

	// Model overrides the preset model.
	Model string

	// Timeout is the default per-call timeout (default: 60s).
	Timeout time.Duration

	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64

	// Burst is the limiter burst size (default: 1).
	Burst int
}

// LLMService is a chat completion client for one provider.
type LLMService struct {
	provider   domain.Provider
	client     *openai.Client
	httpClient *http.Client
	model      string
	timeout    time.Duration
	limiter    *rate.Limiter
}

// NewLLMService creates a client. A missing API key or unknown provider
// is an error; callers skip registering such providers.
func NewLLMService(cfg Config) (*LLMService, error) {
	preset, ok := Presets[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrProviderUnavailable, cfg.Provider)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s API key is required", domain.ErrProviderUnavailable, cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = preset.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = preset.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	// Deadlines come from the per-call context.
	httpClient := &http.Client{}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = httpClient

	return &LLMService{
		provider:   cfg.Provider,
		client:     openai.NewClientWithConfig(clientCfg),
		httpClient: httpClient,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		limiter:    limiter,
	}, nil
}

// Complete sends one system and one user message and returns the trimmed
// reply. Every failure is wrapped in domain.ErrProviderCallFailed.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %s: rate limit wait: %w", domain.ErrProviderCallFailed, s.provider, err)
		}
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrProviderCallFailed, s.provider, describe(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: no choices in response", domain.ErrProviderCallFailed, s.provider)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Provider returns the provider tag this client serves.
func (s *LLMService) Provider() domain.Provider {
	return s.provider
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrProviderUnavailable, s.provider, describe(err))
	}
	return nil
}

// Close releases idle connections.
func (s *LLMService) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func describe(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("request error (status %d): %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return err
}
