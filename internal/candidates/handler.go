package candidates

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/shared/server/middleware"
	"execsummary-backend/internal/shared/server/respond"
)

const candidateCtxKey = "candidate"

// Handler wires candidate HTTP routes to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches candidate routes to the /api/v1 group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/candidates", h.create)
	rg.GET("/candidates", h.list)

	scoped := h.Scoped(rg)
	scoped.GET("", h.get)
	scoped.PATCH("", h.update)
	scoped.DELETE("", h.delete)
	scoped.PUT("/resume-text", h.putResumeText)
	scoped.GET("/availability", h.availability)
}

// Scoped returns a /candidates/:id group whose handlers only run for
// candidates owned by the caller.
func (h *Handler) Scoped(rg *gin.RouterGroup) *gin.RouterGroup {
	return rg.Group("/candidates/:id", h.Scope())
}

// Scope loads the :id candidate for the caller and stores it on the context.
// Candidates owned by someone else are reported as not found.
func (h *Handler) Scope() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		c.Set(middleware.CandidateIDKey, id)

		cand, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
		if err != nil {
			writeError(c, err, "failed to load candidate")
			return
		}
		c.Set(candidateCtxKey, cand)
		c.Next()
	}
}

// FromContext returns the candidate loaded by Scope.
func FromContext(c *gin.Context) (Candidate, bool) {
	v, ok := c.Get(candidateCtxKey)
	if !ok {
		return Candidate{}, false
	}
	cand, ok := v.(Candidate)
	return cand, ok
}

func (h *Handler) create(c *gin.Context) {
	var req CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	owner := Identity{
		ID:    middleware.UserIDFromContext(c),
		Email: middleware.UserEmailFromContext(c),
		Name:  middleware.UserNameFromContext(c),
	}
	cand, err := h.Svc.Create(c.Request.Context(), owner, req)
	if err != nil {
		writeError(c, err, "failed to create candidate")
		return
	}
	c.Set(middleware.CandidateIDKey, cand.ID)
	respond.Created(c, cand)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list candidates")
		return
	}
	respond.OK(c, gin.H{"candidates": items})
}

func (h *Handler) get(c *gin.Context) {
	cand, _ := FromContext(c)
	respond.OK(c, cand)
}

func (h *Handler) update(c *gin.Context) {
	var req UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cand, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err, "failed to update candidate")
		return
	}
	respond.OK(c, cand)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete candidate")
		return
	}
	respond.NoContent(c)
}

type resumeTextRequest struct {
	Text string `json:"text"`
}

func (h *Handler) putResumeText(c *gin.Context) {
	var req resumeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cand, err := h.Svc.SetResumeText(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err, "failed to save resume text")
		return
	}
	respond.OK(c, cand)
}

func (h *Handler) availability(c *gin.Context) {
	avail, err := h.Svc.Availability(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to check sources")
		return
	}
	respond.OK(c, avail)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusBadGateway, "storage_error", fallback, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
