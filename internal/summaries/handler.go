package summaries

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches summary routes to a candidate-scoped group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", h.get)
	rg.PUT("/summary/:field", h.submit)
	rg.PUT("/summary/:field/draft", h.draft)
	rg.POST("/summary/:field/edit", h.edit)
	rg.DELETE("/summary/:field", h.reset)
}

type valueRequest struct {
	Value string `json:"value"`
}

func (h *Handler) get(c *gin.Context) {
	cand, _ := candidates.FromContext(c)
	sum, err := h.Svc.Get(c.Request.Context(), cand.ID)
	if err != nil {
		writeError(c, err, "failed to load summary")
		return
	}
	respond.OK(c, sum)
}

func (h *Handler) submit(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cand, _ := candidates.FromContext(c)
	f, err := h.Svc.Submit(c.Request.Context(), cand.ID, c.Param("field"), req.Value)
	if err != nil {
		writeError(c, err, "failed to submit field")
		return
	}
	respond.OK(c, f)
}

func (h *Handler) draft(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cand, _ := candidates.FromContext(c)
	f, err := h.Svc.SaveDraft(c.Request.Context(), cand.ID, c.Param("field"), req.Value)
	if err != nil {
		writeError(c, err, "failed to save draft")
		return
	}
	respond.OK(c, f)
}

func (h *Handler) edit(c *gin.Context) {
	cand, _ := candidates.FromContext(c)
	f, err := h.Svc.Edit(c.Request.Context(), cand.ID, c.Param("field"))
	if err != nil {
		writeError(c, err, "failed to reopen field")
		return
	}
	respond.OK(c, f)
}

func (h *Handler) reset(c *gin.Context) {
	cand, _ := candidates.FromContext(c)
	f, err := h.Svc.Reset(c.Request.Context(), cand.ID, c.Param("field"))
	if err != nil {
		writeError(c, err, "failed to reset field")
		return
	}
	respond.OK(c, f)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrUnknownField):
		respond.Error(c, http.StatusNotFound, "unknown_field", "unknown summary field", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
