package server

import (
	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/profiles"
	"execsummary-backend/internal/shared/config"
	"execsummary-backend/internal/shared/metrics"
	"execsummary-backend/internal/shared/server/middleware"
	"execsummary-backend/internal/sources"
	"execsummary-backend/internal/summaries"
	"execsummary-backend/internal/synthesis"
	"execsummary-backend/internal/uploads"
)

// RouterDeps carries the handlers registered on the engine.
type RouterDeps struct {
	Config            config.Config
	Health            Pinger
	ProfilesHandler   *profiles.Handler
	CandidatesHandler *candidates.Handler
	SourcesHandler    *sources.Handler
	SummariesHandler  *summaries.Handler
	UploadsHandler    *uploads.Handler
	SynthesisHandler  *synthesis.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/healthz", healthHandler(deps.Health))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))
	api.Use(middleware.Auth(config.IsDevLike(deps.Config.Env)))

	if deps.ProfilesHandler != nil {
		deps.ProfilesHandler.RegisterRoutes(api)
	}
	if deps.SynthesisHandler != nil {
		deps.SynthesisHandler.RegisterRoutes(api)
	}
	if deps.CandidatesHandler == nil {
		return r
	}
	deps.CandidatesHandler.RegisterRoutes(api)

	scoped := deps.CandidatesHandler.Scoped(api)
	if deps.SourcesHandler != nil {
		deps.SourcesHandler.RegisterRoutes(scoped)
	}
	if deps.SummariesHandler != nil {
		deps.SummariesHandler.RegisterRoutes(scoped)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(scoped)
	}
	if deps.SynthesisHandler != nil {
		deps.SynthesisHandler.RegisterCandidateRoutes(scoped)
	}
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
