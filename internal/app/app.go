// Package app wires the application together: configuration, database,
// Genkit, the ingestion write path and the chat read path.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/navigatorhq/navigator/internal/chat"
	"github.com/navigatorhq/navigator/internal/config"
	"github.com/navigatorhq/navigator/internal/conversation"
	"github.com/navigatorhq/navigator/internal/ingest"
	"github.com/navigatorhq/navigator/internal/knowledge"
	"github.com/navigatorhq/navigator/internal/log"
	"github.com/navigatorhq/navigator/internal/rag"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit *genkit.Genkit
	Pool   *pgxpool.Pool
	Index  knowledge.Index

	// Write path
	Pipeline *ingest.Pipeline
	Ingestor *ingest.Ingestor

	// Read path
	Retriever     *rag.Retriever
	Orchestrator  *chat.Orchestrator
	Conversations *conversation.Store
}

// Close releases all resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.Pool != nil {
		a.Pool.Close()
	}

	return nil
}
