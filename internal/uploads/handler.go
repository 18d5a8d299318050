package uploads

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/candidates"
	"execsummary-backend/internal/shared/server/middleware"
	"execsummary-backend/internal/shared/server/respond"
	"execsummary-backend/internal/sources"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload routes to a candidate-scoped group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resume", h.resume)
	rg.POST("/linkedin/sections/:type/screenshot", h.screenshot)
}

func (h *Handler) resume(c *gin.Context) {
	f, cleanup, ok := formFile(c)
	if !ok {
		return
	}
	defer cleanup()

	cand, _ := candidates.FromContext(c)
	res, err := h.Svc.UploadResume(c.Request.Context(), middleware.UserIDFromContext(c), cand.ID, f)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, res)
}

func (h *Handler) screenshot(c *gin.Context) {
	t, err := sources.ParseSectionType(c.Param("type"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	}
	f, cleanup, ok := formFile(c)
	if !ok {
		return
	}
	defer cleanup()

	cand, _ := candidates.FromContext(c)
	section, err := h.Svc.UploadScreenshot(c.Request.Context(), cand.ID, t, f)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, section)
}

// formFile reads the "file" part. It writes the error response itself.
func formFile(c *gin.Context) (File, func(), bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(c, reject("request", ErrTooLarge))
			return File{}, nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return File{}, nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return File{}, nil, false
	}
	return File{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, func() { _ = file.Close() }, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error(), nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), gin.H{"maxBytes": MaxUploadBytes})
	case errors.Is(err, ErrInvalidInput), errors.Is(err, sources.ErrUnknownSection):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, candidates.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusBadGateway, "storage_error", "failed to store file", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "upload failed", nil)
	}
}
