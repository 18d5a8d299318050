package sources

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

// RegisterRoutes attaches source routes to a candidate-scoped group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sources", h.all)
	rg.PATCH("/sources/:record", h.editRecord)
	rg.GET("/linkedin/sections", h.listSections)
	rg.GET("/linkedin/sections/:type", h.getSection)
	rg.PUT("/linkedin/sections/:type", h.putSection)
	rg.DELETE("/linkedin/sections/:type", h.deleteSection)
}

func (h *Handler) all(c *gin.Context) {
	cand, _ := candidates.FromContext(c)
	b, err := h.Svc.All(c.Request.Context(), cand.ID)
	if err != nil {
		writeError(c, err, "failed to load sources")
		return
	}
	respond.OK(c, b)
}

type editRequest struct {
	Fields map[string]string `json:"fields"`
}

func (h *Handler) editRecord(c *gin.Context) {
	record, err := ParseRecord(c.Param("record"))
	if err != nil {
		writeError(c, err, "")
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cand, _ := candidates.FromContext(c)
	a, err := h.Svc.Edit(c.Request.Context(), record, cand.ID, req.Fields)
	if err != nil {
		writeError(c, err, "failed to save source record")
		return
	}
	respond.OK(c, a)
}

func (h *Handler) listSections(c *gin.Context) {
	cand, _ := candidates.FromContext(c)
	items, err := h.Svc.ListLinkedInSections(c.Request.Context(), cand.ID)
	if err != nil {
		writeError(c, err, "failed to list sections")
		return
	}
	respond.OK(c, gin.H{"sections": items})
}

func (h *Handler) getSection(c *gin.Context) {
	t, err := ParseSectionType(c.Param("type"))
	if err != nil {
		writeError(c, err, "")
		return
	}
	cand, _ := candidates.FromContext(c)
	s, err := h.Svc.GetLinkedInSection(c.Request.Context(), cand.ID, t)
	if err != nil {
		writeError(c, err, "failed to load section")
		return
	}
	respond.OK(c, s)
}

type sectionRequest struct {
	Content string `json:"content"`
}

func (h *Handler) putSection(c *gin.Context) {
	t, err := ParseSectionType(c.Param("type"))
	if err != nil {
		writeError(c, err, "")
		return
	}
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cand, _ := candidates.FromContext(c)
	s, err := h.Svc.PutLinkedInSection(c.Request.Context(), cand.ID, t, req.Content)
	if err != nil {
		writeError(c, err, "failed to save section")
		return
	}
	respond.OK(c, s)
}

func (h *Handler) deleteSection(c *gin.Context) {
	t, err := ParseSectionType(c.Param("type"))
	if err != nil {
		writeError(c, err, "")
		return
	}
	cand, _ := candidates.FromContext(c)
	if err := h.Svc.DeleteLinkedInSection(c.Request.Context(), cand.ID, t); err != nil {
		writeError(c, err, "failed to delete section")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "section not found", nil)
	case errors.Is(err, ErrUnknownRecord), errors.Is(err, ErrUnknownSection):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
