package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/healthnav/db"
	"github.com/smarthealth/healthnav/internal/assist"
	"github.com/smarthealth/healthnav/internal/config"
	"github.com/smarthealth/healthnav/internal/embedding"
	"github.com/smarthealth/healthnav/internal/intake"
	"github.com/smarthealth/healthnav/internal/patientstore"
	"github.com/smarthealth/healthnav/internal/places"
	"github.com/smarthealth/healthnav/internal/pubmed"
	"github.com/smarthealth/healthnav/internal/retrieval"
	"github.com/smarthealth/healthnav/internal/vecindex"
	"github.com/smarthealth/healthnav/internal/websearch"
)

// Setup creates and initializes the application. Call Close on the returned
// App to release its resources.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
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
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	provider, err := embedding.New(embedder, cfg.EmbeddingDim)
	if err != nil {
		return nil, err
	}

	if err := provideCore(ctx, a, pool, provider, logger); err != nil {
		return nil, err
	}

	assistant, err := provideAssistant(a, g, logger)
	if err != nil {
		return nil, err
	}
	a.Assistant = assistant
	assistant.RegisterTools(g)

	return a, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
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

// provideGenkit initializes Genkit with the Google AI plugin. GEMINI_API_KEY
// is read by the plugin directly; config validation already checked it.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	logger.Info("initialized Genkit", "model", cfg.ModelName, "embedder", cfg.EmbedderModel)
	return g, nil
}

// provideCore builds the intake and retrieval core around the shared pool
// and embedder.
func provideCore(ctx context.Context, a *App, pool *pgxpool.Pool, provider *embedding.Provider, logger *slog.Logger) error {
	patients, err := patientstore.New(pool, logger.With("component", "patientstore"))
	if err != nil {
		return fmt.Errorf("creating patient store: %w", err)
	}
	a.Patients = patients

	vectors, err := vecindex.New(ctx, pool, provider.Dimension(), logger.With("component", "vecindex"))
	if err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	a.Vectors = vectors

	pipeline, err := intake.New(patients, vectors, provider, logger.With("component", "intake"))
	if err != nil {
		return fmt.Errorf("creating intake pipeline: %w", err)
	}
	a.Pipeline = pipeline

	engine, err := retrieval.New(vectors, provider, logger.With("component", "retrieval"))
	if err != nil {
		return fmt.Errorf("creating retrieval engine: %w", err)
	}
	a.Engine = engine

	return nil
}

// provideAssistant assembles the conversational layer. External handlers
// whose API keys are absent stay nil and degrade gracefully.
func provideAssistant(a *App, g *genkit.Genkit, logger *slog.Logger) (*assist.Assistant, error) {
	cfg := a.Config
	modelName := cfg.FullModelName()

	opts := assist.Options{
		Records:   a.Patients,
		Generator: assist.NewModelGenerator(g, modelName),
		Config: assist.Config{
			ScoreThreshold: cfg.ScoreThreshold,
			TopK:           cfg.TopK,
			CacheItems:     cfg.ResponseCacheItems,
		},
		Logger: logger.With("component", "assist"),
	}

	if cfg.WebSearchConfigured() {
		web, err := websearch.New(cfg.GoogleCSEKey, cfg.GoogleCSEEngineID, nil)
		if err != nil {
			return nil, fmt.Errorf("creating web search client: %w", err)
		}
		opts.Web = web
	} else {
		logger.Debug("web search fallback disabled, credentials not set")
	}

	if cfg.PlacesConfigured() {
		placesClient, err := places.New(cfg.SerpAPIKey, nil)
		if err != nil {
			return nil, fmt.Errorf("creating places client: %w", err)
		}
		opts.Places = placesClient
	} else {
		logger.Debug("places lookup disabled, SERPAPI_KEY not set")
	}

	// NCBI accepts keyless clients, so literature search is always on.
	opts.Literature = pubmed.New(cfg.NCBIAPIKey, nil)

	classifier := assist.NewModelClassifier(g, modelName, logger.With("component", "classifier"))
	return assist.New(classifier, a.Pipeline, a.Engine, opts)
}
