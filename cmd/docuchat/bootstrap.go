package main

import (
	"context"
	"errors"

	"github.com/custodia-labs/docuchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/docuchat/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/docuchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docuchat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docuchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/docuchat/internal/config"
	"github.com/custodia-labs/docuchat/internal/core/services"
	"github.com/custodia-labs/docuchat/internal/extractors"
	"github.com/custodia-labs/docuchat/internal/extractors/pdf"
	"github.com/custodia-labs/docuchat/internal/logger"
	"github.com/custodia-labs/docuchat/internal/metrics"
	"github.com/custodia-labs/docuchat/internal/postprocessors/chunker"
)

// bootstrap wires the adapters for one CLI invocation. Dependencies that
// cannot be reached are logged and left nil so "health", "migrate" and
// "config" keep working; the commands that need them report it.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		dir, err := config.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, err
	}
	if opts.ConfigOnly {
		return &cli.Services{Config: configStore}, nil
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	logger.SetVerbose(opts.Verbose || cfg.Verbose)

	dsn := cfg.Database.DSN()
	svc := &cli.Services{
		Config:      configStore,
		Metrics:     metrics.New(),
		MetricsAddr: cfg.Metrics.Addr,
	}
	svc.Migrate = func(direction string, steps int) error {
		return postgres.Migrate(dsn, direction, steps)
	}
	var closers []func() error
	svc.Close = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	backend, err := ai.CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	var embedOpts []services.EmbedderOption
	if cfg.Redis.URL != "" {
		cache, err := redis.New(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("Embedding cache disabled: %v", err)
		} else {
			embedOpts = append(embedOpts, services.WithEmbeddingCache(cache, cfg.Redis.TTL))
		}
	}
	embedder := services.NewEmbedder(backend, embedOpts...)
	closers = append(closers, embedder.Close)

	clients, warnings, err := ai.CreateLLMServices(cfg.LLM)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	for _, w := range warnings {
		logger.Debug("LLM provider skipped: %s", w)
	}
	providers := services.NewProviderRegistry(cfg.DefaultProvider(), clients...)
	closers = append(closers, providers.Close)

	store, err := postgres.Open(ctx, dsn, postgres.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Warn("Database unavailable: %v", err)
		svc.Health = services.NewHealthService(nil, "postgres", embedder, providers)
		return svc, nil
	}
	closers = append(closers, store.Close)

	prompts, err := file.NewPromptStore(cfg.PromptDir())
	if err != nil {
		_ = svc.Close()
		return nil, err
	}

	registry := extractors.NewDefaultRegistry(
		pdf.WithTesseractPath(cfg.OCR.TesseractPath),
		pdf.WithPdftoppmPath(cfg.OCR.PdftoppmPath),
		pdf.WithDPI(cfg.OCR.DPI),
		pdf.WithMinNativeChars(cfg.OCR.MinNativeChars),
	)
	if err := pdf.CheckOCRAvailable(); err != nil {
		logger.Debug("OCR fallback unavailable: %v", err)
	}
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestion := services.NewIngestionService(registry, splitter, embedder, store, store)
	ingestion.SetMetrics(svc.Metrics)

	retriever := services.NewRetriever(embedder, store, store)
	retriever.SetMetrics(svc.Metrics)

	answers := services.NewAnswerService(retriever, providers, prompts)
	answers.SetMetrics(svc.Metrics)

	svc.Ingestion = ingestion
	svc.Retrieval = retriever
	svc.Answer = answers
	svc.Health = services.NewHealthService(store, "postgres", embedder, providers)
	return svc, nil
}
