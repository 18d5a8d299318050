package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"execsummary-backend/internal/shared/util"
)

const requestIDKey = "requestId"

// Context keys handlers set so request logs can carry them.
const (
	CandidateIDKey = "candidateId"
	SynthesisKey   = "synthesis"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestID reuses a well-formed X-Request-Id or generates one, and echoes it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if !requestIDPattern.MatchString(id) {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// RequestIDFromContext fetches the request ID stored by RequestID middleware.
func RequestIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(requestIDKey)
}

// scopeFields returns the identifiers known for the request so far: request,
// caller, candidate and synthesis.
func scopeFields(c *gin.Context) map[string]any {
	fields := map[string]any{
		"request_id": RequestIDFromContext(c),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}
	if owner := UserIDFromContext(c); owner != "" {
		fields["user_id"] = owner
		fields["owner_hash"] = util.HashOwnerID(owner)
	}
	if id := c.GetString(CandidateIDKey); id != "" {
		fields["candidate_id"] = id
	}
	if name := c.GetString(SynthesisKey); name != "" {
		fields["synthesis"] = name
	}
	return fields
}
