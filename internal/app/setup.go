package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silacode/customer-support-agent/db"
	"github.com/silacode/customer-support-agent/internal/config"
	"github.com/silacode/customer-support-agent/internal/orders"
	"github.com/silacode/customer-support-agent/internal/policy"
	"github.com/silacode/customer-support-agent/internal/sqlgen"
	"github.com/silacode/customer-support-agent/internal/tools"
)

// Setup creates and initializes the application. Call Close on the
// returned App to release everything.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := providePGPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder
	a.PolicyStore = policy.NewStore(pool, embedder, logger)

	ordersDB, err := provideOrdersDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.OrdersDB = ordersDB

	router, err := provideRouter(g, a, logger)
	if err != nil {
		return nil, err
	}
	a.Router = router

	return a, nil
}

// providePGPool runs the policy-index migrations and opens the
// connection pool for vector search.
func providePGPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), openai, and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama has no model auto-discovery.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit", "provider", "ollama",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit", "provider", "openai", "model", cfg.ModelName)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit", "provider", "gemini", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider
// plugin. Each provider keys embedders differently.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideOrdersDB opens the SQLite orders database, applies its
// migrations, and seeds the sample data set.
func provideOrdersDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	sqlDB, err := orders.Open(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening orders database: %w", err)
	}
	if err := orders.Migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating orders database: %w", err)
	}
	if err := orders.Seed(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("seeding orders database: %w", err)
	}
	return sqlDB, nil
}

// provideRouter wires the tool handlers and declares them with Genkit.
func provideRouter(g *genkit.Genkit, a *App, logger *slog.Logger) (*tools.Router, error) {
	modelName := QualifiedModelName(a.Config)

	generator := sqlgen.NewLLMGenerator(g, modelName, orders.Schema)
	reviewer := sqlgen.NewLLMReviewer(g, modelName, orders.Schema)
	executor := orders.NewStore(a.OrdersDB, logger)

	resolver, err := sqlgen.NewResolver(generator, reviewer, executor, logger)
	if err != nil {
		return nil, fmt.Errorf("creating query resolver: %w", err)
	}

	router := tools.NewRouter(logger)
	if err := router.Register(tools.DatabaseTool(resolver)); err != nil {
		return nil, err
	}
	if err := router.Register(tools.PoliciesTool(a.PolicyStore, a.Config.SearchTopK)); err != nil {
		return nil, err
	}
	if err := tools.Declare(g, router); err != nil {
		return nil, fmt.Errorf("declaring tools: %w", err)
	}
	return router, nil
}

// QualifiedModelName returns the provider-prefixed model name Genkit
// resolves actions by. Already-qualified names pass through.
func QualifiedModelName(cfg *config.Config) string {
	if strings.Contains(cfg.ModelName, "/") {
		return cfg.ModelName
	}
	switch cfg.Provider {
	case config.ProviderOllama:
		return "ollama/" + cfg.ModelName
	case config.ProviderOpenAI:
		return "openai/" + cfg.ModelName
	default:
		return "googleai/" + cfg.ModelName
	}
}
