// Package app provides application initialization and dependency
// wiring: configuration, Genkit with the selected provider, the orders
// database, the policy index, and the tool router.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silacode/customer-support-agent/internal/agent"
	"github.com/silacode/customer-support-agent/internal/config"
	"github.com/silacode/customer-support-agent/internal/policy"
	"github.com/silacode/customer-support-agent/internal/tools"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit      *genkit.Genkit
	Embedder    ai.Embedder
	DBPool      *pgxpool.Pool
	OrdersDB    *sql.DB
	PolicyStore *policy.Store
	Router      *tools.Router
}

// Close releases all held resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down")
	}
	var errs []error
	if a.OrdersDB != nil {
		if err := a.OrdersDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing orders database: %w", err))
		}
	}
	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// CreateAgent builds a conversation orchestrator on the app's wiring.
// Observer options let the caller attach its display surface.
func (a *App) CreateAgent(opts ...agent.Option) (*agent.Agent, error) {
	cfg := agent.Config{
		ModelName:          QualifiedModelName(a.Config),
		MaxHistoryMessages: a.Config.MaxHistoryMessages,
		MaxToolRounds:      a.Config.MaxToolRounds,
		ToolTimeout:        a.Config.ToolTimeout,
		RequestsPerSecond:  a.Config.RequestsPerSecond,
	}
	if a.Config.MaxRetries > 0 {
		cfg.Retry = agent.DefaultRetryConfig()
		cfg.Retry.MaxRetries = a.Config.MaxRetries
	}
	opts = append(opts, agent.WithCircuitBreaker(
		agent.NewCircuitBreaker(agent.DefaultCircuitBreakerConfig())))

	return agent.New(a.Genkit, a.Router, tools.Refs(a.Genkit, a.Router), cfg, a.Logger, opts...)
}

// EnsurePolicies ingests the policy documents when the index is empty.
// Returns the number of chunks added.
func (a *App) EnsurePolicies(ctx context.Context) (int, error) {
	count, err := a.PolicyStore.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting policy chunks: %w", err)
	}
	if count > 0 {
		a.Logger.Debug("policy index already populated", "chunks", count)
		return 0, nil
	}
	return a.IngestPolicies(ctx)
}

// IngestPolicies loads and embeds every policy document under the
// configured directory.
func (a *App) IngestPolicies(ctx context.Context) (int, error) {
	docs, err := policy.LoadDir(a.Config.PoliciesDir)
	if err != nil {
		return 0, fmt.Errorf("loading policy documents: %w", err)
	}
	for _, doc := range docs {
		if err := a.PolicyStore.Add(ctx, doc); err != nil {
			return 0, fmt.Errorf("indexing %q chunk %d: %w", doc.Source, doc.ChunkIndex, err)
		}
	}
	a.Logger.Info("policy documents ingested", "dir", a.Config.PoliciesDir, "chunks", len(docs))
	return len(docs), nil
}
