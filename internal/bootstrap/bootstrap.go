package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mpetrenko/doc-enrichment/internal/config"
	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
	"github.com/mpetrenko/doc-enrichment/internal/core/usecase"
	"github.com/mpetrenko/doc-enrichment/internal/infrastructure/extractor"
	"github.com/mpetrenko/doc-enrichment/internal/infrastructure/llm/openai"
	"github.com/mpetrenko/doc-enrichment/internal/infrastructure/queue/nats"
	"github.com/mpetrenko/doc-enrichment/internal/infrastructure/repository/postgres"
	"github.com/mpetrenko/doc-enrichment/internal/infrastructure/resilience"
	"github.com/mpetrenko/doc-enrichment/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Repo     ports.DocumentRepository
	IngestUC ports.DocumentIngestor
	EnrichUC ports.DocumentEnricher
	ManageUC ports.DocumentManager

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	completer := openai.New(cfg.OpenAIAPIKey, openai.Options{
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: time.Duration(cfg.OpenAITimeoutSeconds) * time.Second,
	})
	textExtractor := extractor.New(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	enrichUC := usecase.NewEnrichDocumentUseCase(repo, textExtractor, completer, usecase.EnrichConfig{
		ClassifyMaxTokens:  cfg.ClassifyMaxTokens,
		SummaryMaxTokens:   cfg.SummaryMaxTokens,
		SummaryTemperature: cfg.SummaryTemperature,
	}, logger)
	manageUC := usecase.NewManageDocumentUseCase(repo, storage, logger)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC: ingestUC,
		EnrichUC: enrichUC,
		ManageUC: manageUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
