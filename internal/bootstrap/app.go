package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/events"
	"execsummary-backend/internal/extract"
	"execsummary-backend/internal/llm"
	"execsummary-backend/internal/llm/gemini"
	"execsummary-backend/internal/llm/openai"
	"execsummary-backend/internal/profiles"
	"execsummary-backend/internal/shared/config"
	"execsummary-backend/internal/shared/server"
	"execsummary-backend/internal/shared/server/middleware"
	"execsummary-backend/internal/shared/storage/db"
	"execsummary-backend/internal/shared/storage/object"
	localstore "execsummary-backend/internal/shared/storage/object/local"
	s3store "execsummary-backend/internal/shared/storage/object/s3"
	"execsummary-backend/internal/shared/telemetry"
	"execsummary-backend/internal/sources"
	"execsummary-backend/internal/summaries"
	"execsummary-backend/internal/synthesis"
	"execsummary-backend/internal/uploads"
)

const llmRetryDelay = 2 * time.Second

// App holds shared dependencies and the assembled router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	LLM    llm.Client
	Events events.Publisher

	ProfilesService   *profiles.Service
	CandidatesService *candidates.Service
	SourcesService    *sources.Service
	SummariesService  *summaries.Service
	SynthesisService  *synthesis.Service
	UploadsService    *uploads.Service

	closers []func() error
}

// Build connects infrastructure, wires services and registers routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: sqlDB}
	// The Lambda singleton outlives any one App.
	if sqlDB != nil && !db.IsLambdaRuntime() {
		app.closers = append(app.closers, sqlDB.Close)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Store = store
	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.LLM = llmClient
	app.Events = buildEvents(cfg, app)

	buildServices(app)

	deps := server.RouterDeps{
		Config:            cfg,
		ProfilesHandler:   profiles.NewHandler(app.ProfilesService),
		CandidatesHandler: candidates.NewHandler(app.CandidatesService),
		SourcesHandler:    sources.NewHandler(app.SourcesService),
		SummariesHandler:  summaries.NewHandler(app.SummariesService),
		UploadsHandler:    uploads.NewHandler(app.UploadsService),
		SynthesisHandler: synthesis.NewHandler(
			app.SynthesisService,
			middleware.NewRateLimiter(nil),
			middleware.PerMinute(cfg.SynthesisRatePerMinute, cfg.SynthesisBurst),
		),
	}
	if sqlDB != nil {
		deps.Health = sqlDB
	}
	app.Router = server.NewRouter(deps)

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"database":     sqlDB != nil,
		"object_store": cfg.ObjectStoreType,
		"llm_provider": cfg.LLMProvider,
		"events":       cfg.RabbitMQURL != "",
	})
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Replaced in tests.
var (
	connectDB       = db.Connect
	singletonDB     = db.GetSingleton
	applyMigrations = db.RunMigrations
)

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	lambda := db.IsLambdaRuntime()
	if lambda {
		sqlDB, err = singletonDB(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = connectDB(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := applyMigrations(ctx, sqlDB); err != nil {
		if !lambda {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildLLM picks the provider client. A missing key leaves the placeholder
// in place so the rest of the API still serves.
func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "openai", "openrouter":
		if strings.TrimSpace(cfg.LLMAPIKey) == "" {
			break
		}
		client, err = openai.NewClient(openai.Options{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMAPIKey,
			Model:    cfg.LLMModel,
			BaseURL:  cfg.LLMBaseURL,
			Timeout:  cfg.LLMTimeout,
		})
	case "gemini":
		if strings.TrimSpace(cfg.LLMAPIKey) == "" {
			break
		}
		client, err = gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.LLMBaseURL,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	if client == nil {
		telemetry.Warn("bootstrap.llm_not_configured", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
	return llm.WithRetry(client, cfg.LLMMaxRetries, llmRetryDelay), nil
}

// buildEvents dials the broker when configured. Publishing is best effort,
// so a failed dial degrades to the no-op publisher.
func buildEvents(cfg config.Config, app *App) events.Publisher {
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		return events.Noop{}
	}
	pub, err := events.DialAMQP(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		telemetry.Warn("bootstrap.events_unavailable", map[string]any{"error": err.Error()})
		return events.Noop{}
	}
	app.closers = append(app.closers, pub.Close)
	return pub
}

func buildServices(app *App) {
	var (
		profileRepo profiles.Repo
		candRepo    candidates.Repo
		sourceRepo  sources.Repo
		summaryRepo summaries.Repo
	)
	if app.DB != nil {
		profileRepo = &profiles.PGRepo{DB: app.DB}
		candRepo = &candidates.PGRepo{DB: app.DB}
		sourceRepo = &sources.PGRepo{DB: app.DB}
		summaryRepo = &summaries.PGRepo{DB: app.DB}
	} else {
		profileRepo = profiles.NewMemoryRepo()
		memSources := sources.NewMemoryRepo()
		memSummaries := summaries.NewMemoryRepo()
		sourceRepo, summaryRepo = memSources, memSummaries
		candRepo = candidates.NewMemoryRepo(memSummaries, memSources)
	}

	app.ProfilesService = profiles.NewService(profileRepo)
	app.SummariesService = &summaries.Service{Repo: summaryRepo, Events: app.Events}
	app.SourcesService = &sources.Service{Repo: sourceRepo, Store: app.Store, Events: app.Events}

	app.CandidatesService = &candidates.Service{
		Repo:     candRepo,
		Store:    app.Store,
		Profiles: app.ProfilesService,
		Sources:  app.SourcesService,
		Events:   app.Events,
	}
	app.SourcesService.Candidates = app.CandidatesService

	app.SynthesisService = &synthesis.Service{
		Registry:   synthesis.DefaultRegistry(),
		Candidates: app.CandidatesService,
		Sources:    app.SourcesService,
		Summaries:  app.SummariesService,
		LLM:        app.LLM,
		Events:     app.Events,
	}
	app.UploadsService = &uploads.Service{
		Store:            app.Store,
		Candidates:       app.CandidatesService,
		Sections:         app.SourcesService,
		Extractor:        extract.New(app.Config.ExtractTimeout, app.Config.ExtractRetries, app.Config.ExtractRetryDelay),
		ResumePrefix:     app.Config.ResumePrefix,
		ScreenshotPrefix: app.Config.ScreenshotPrefix,
	}
}
