package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
	"github.com/custodia-labs/docuchat/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// readiness is implemented by embedders that can report warm-up state.
type readiness interface {
	Ready(ctx context.Context) error
}

// HealthService reports whether the store, embedding model and LLM
// providers are usable.
type HealthService struct {
	store     driven.HealthChecker
	storeName string
	embedder  driven.EmbeddingService
	providers *ProviderRegistry
}

// NewHealthService creates a new health service.
func NewHealthService(
	store driven.HealthChecker,
	storeName string,
	embedder driven.EmbeddingService,
	providers *ProviderRegistry,
) *HealthService {
	return &HealthService{
		store:     store,
		storeName: storeName,
		embedder:  embedder,
		providers: providers,
	}
}

// Check probes every dependency. It always returns a report; failures
// mark the status degraded and are listed in Problems.
func (s *HealthService) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{
		Status: domain.HealthHealthy,
		Store:  s.storeName,
	}
	problem := func(format string, args ...any) {
		report.Problems = append(report.Problems, fmt.Sprintf(format, args...))
	}

	if s.store == nil {
		problem("store: not configured")
	} else if err := s.store.Ping(ctx); err != nil {
		problem("store: %v", err)
	} else {
		ok, err := s.store.VectorSupport(ctx)
		switch {
		case err != nil:
			problem("vector extension: %v", err)
		case !ok:
			problem("vector extension: not installed")
		}
		report.VectorSupport = ok && err == nil
	}

	if s.embedder == nil {
		problem("embedding: %v", domain.ErrEmbeddingUnavailable)
	} else {
		report.EmbeddingModel = s.embedder.ModelName()
		var err error
		if r, ok := s.embedder.(readiness); ok {
			err = r.Ready(ctx)
		} else {
			err = s.embedder.Ping(ctx)
		}
		if err != nil {
			problem("embedding: %v", err)
		}
		report.EmbeddingReady = err == nil
	}

	if s.providers != nil {
		report.Providers = s.providers.Providers()
	}
	if len(report.Providers) == 0 {
		problem("llm: no provider has an API key configured")
	}

	if len(report.Problems) > 0 {
		report.Status = domain.HealthDegraded
	}
	return report
}
