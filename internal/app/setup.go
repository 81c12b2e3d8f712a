package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/navigatorhq/navigator/db"
	"github.com/navigatorhq/navigator/internal/chat"
	"github.com/navigatorhq/navigator/internal/chunker"
	"github.com/navigatorhq/navigator/internal/config"
	"github.com/navigatorhq/navigator/internal/conversation"
	"github.com/navigatorhq/navigator/internal/database"
	"github.com/navigatorhq/navigator/internal/ingest"
	"github.com/navigatorhq/navigator/internal/knowledge"
	"github.com/navigatorhq/navigator/internal/log"
	"github.com/navigatorhq/navigator/internal/rag"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := knowledge.NewGenkitEmbedder(provideAIEmbedder(g, cfg), cfg.EmbeddingDimension)

	index := knowledge.NewPostgresIndex(pool, cfg.EmbeddingDimension, cfg.EFSearch,
		logger.With("component", "index"))
	if err := index.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("verifying index schema: %w", err)
	}
	a.Index = index

	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("creating chunker: %w", err)
	}

	pipeline, err := ingest.NewPipeline(ingest.Config{
		Chunker:       ch,
		Embedder:      embedder,
		Index:         index,
		MinTextLength: cfg.MinTextLength,
		Logger:        logger.With("component", "ingest"),
	})
	if err != nil {
		return nil, err
	}
	a.Pipeline = pipeline

	ingestor, err := provideIngestor(cfg, pipeline, logger)
	if err != nil {
		return nil, err
	}
	a.Ingestor = ingestor

	a.Retriever = rag.NewRetriever(embedder, index, cfg.TopK,
		logger.With("component", "retriever"))

	generator := chat.NewGenkitGenerator(g, chat.GeneratorConfig{
		ModelName:       cfg.FullModelName(),
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		MaxOutputTokens: int32(cfg.MaxTokens),
	})
	a.Orchestrator = chat.NewOrchestrator(generator, logger.With("component", "chat"))

	a.Conversations = conversation.NewStore(pool)

	return a, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the Google AI plugin.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
	)
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	logger.Info("initialized Genkit",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel)
	return g, nil
}

// provideAIEmbedder looks up the embedder registered by the plugin.
func provideAIEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// provideIngestor assembles the ingestion trigger path. Documents are
// fetched from the local documents root; PDF extraction happens upstream,
// so only plain text is handled here.
func provideIngestor(cfg *config.Config, pipeline *ingest.Pipeline, logger log.Logger) (*ingest.Ingestor, error) {
	root := cfg.DocumentsRoot
	if root == "" {
		root = "."
	}
	blobs, err := ingest.NewLocalBlobStore(root)
	if err != nil {
		return nil, fmt.Errorf("opening documents root: %w", err)
	}

	return ingest.NewIngestor(blobs, ingest.PlainTextExtractor{}, pipeline,
		logger.With("component", "ingestor")), nil
}
