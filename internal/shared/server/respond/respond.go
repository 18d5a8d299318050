// Package respond writes JSON bodies in the API's envelope.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/shared/telemetry"
)

// ErrorBody is the payload under "error".
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// logKeys maps gin context keys set by middleware and handlers to log fields.
var logKeys = [][2]string{
	{"requestId", "request_id"},
	{"userId", "user_id"},
	{"candidateId", "candidate_id"},
	{"synthesis", "synthesis"},
}

// Error aborts the request with status and the error envelope, and logs
// http.error at warn for 4xx and error for 5xx.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
		"path":    c.FullPath(),
		"method":  c.Request.Method,
	}
	for _, k := range logKeys {
		if v := c.GetString(k[0]); v != "" {
			fields[k[1]] = v
		}
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
