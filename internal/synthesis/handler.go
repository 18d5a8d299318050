package synthesis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/llm"
	"execsummary-backend/internal/shared/server/middleware"
	"execsummary-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc     *Service
	Limiter *middleware.RateLimiter
	Rule    middleware.RateLimitRule
}

func NewHandler(svc *Service, limiter *middleware.RateLimiter, rule middleware.RateLimitRule) *Handler {
	return &Handler{Svc: svc, Limiter: limiter, Rule: rule}
}

// RegisterRoutes attaches the listing route to the /api/v1 group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/syntheses", h.list)
}

// RegisterCandidateRoutes attaches the run route to a candidate-scoped group.
func (h *Handler) RegisterCandidateRoutes(rg *gin.RouterGroup) {
	handlers := []gin.HandlerFunc{}
	if h.Limiter != nil {
		handlers = append(handlers, middleware.RateLimit("synthesis", h.Rule, h.Limiter))
	}
	handlers = append(handlers, h.run)
	rg.POST("/synthesize/:name", handlers...)
}

func (h *Handler) list(c *gin.Context) {
	respond.OK(c, gin.H{"syntheses": h.Svc.Definitions()})
}

func (h *Handler) run(c *gin.Context) {
	name := c.Param("name")
	c.Set(middleware.SynthesisKey, name)
	cand, _ := candidates.FromContext(c)

	res, err := h.Svc.Run(c.Request.Context(), cand.ID, name)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, res)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
	case errors.Is(err, ErrUnknownSynthesis):
		respond.Error(c, http.StatusNotFound, "unknown_synthesis", "unknown synthesis", nil)
	case errors.Is(err, ErrNoSourceData):
		respond.Error(c, http.StatusUnprocessableEntity, "no_source_data", "no source data available for this synthesis", nil)
	case errors.Is(err, ErrMalformedReply):
		respond.Error(c, http.StatusBadGateway, "llm_malformed_reply", "the model reply could not be used", nil)
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "llm_not_configured", "no model provider is configured", nil)
	case errors.Is(err, ErrUpstream):
		respond.Error(c, http.StatusBadGateway, "llm_error", "the model call failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "synthesis failed", nil)
	}
}
