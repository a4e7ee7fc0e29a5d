// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/docuchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docuchat/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docuchat/internal/adapters/driven/llm/openaicompat"
	"github.com/custodia-labs/docuchat/internal/config"
	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding backend named in cfg.
func CreateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case config.EmbeddingOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			Dimensions: cfg.Dimensions,
		}), nil

	case config.EmbeddingOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			Dimensions: cfg.Dimensions,
		}), nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrEmbeddingUnavailable, cfg.Provider)
	}
}

// CreateLLMServices creates a client for every provider with an API key.
// Providers without credentials are skipped and reported in the returned
// warnings; they are not errors.
func CreateLLMServices(cfg config.LLMConfig) ([]driven.LLMService, []string, error) {
	var (
		services []driven.LLMService
		warnings []string
	)

	for _, p := range domain.SupportedProviders() {
		pc := cfg.For(p)
		if pc.APIKey == "" {
			warnings = append(warnings, fmt.Sprintf("%s: no API key configured", p))
			continue
		}

		svc, err := openaicompat.NewLLMService(openaicompat.Config{
			Provider:          p,
			APIKey:            pc.APIKey,
			BaseURL:           pc.BaseURL,
			Model:             pc.Model,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		})
		if err != nil {
			closeAll(services)
			return nil, nil, fmt.Errorf("create %s client: %w", p, err)
		}
		services = append(services, svc)
	}

	return services, warnings, nil
}

// ValidateEmbeddingService pings the embedding backend.
func ValidateEmbeddingService(ctx context.Context, svc driven.EmbeddingService) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, svc.ModelName(), err)
	}
	return nil
}

// ValidateLLMServices pings every client and returns one error per
// unreachable provider, joined.
func ValidateLLMServices(ctx context.Context, services []driven.LLMService) error {
	var errs []error
	for _, svc := range services {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		if err := svc.Ping(pctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	return errors.Join(errs...)
}

func closeAll(services []driven.LLMService) {
	for _, svc := range services {
		_ = svc.Close()
	}
}
