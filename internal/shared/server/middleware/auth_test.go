package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func identityRouter(devLike bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(devLike))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":  UserIDFromContext(c),
			"owner": OwnerIDFromContext(c.Request.Context()),
			"email": UserEmailFromContext(c),
		})
	})
	router.OPTIONS("/whoami", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router := identityRouter(false)

	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthIdentitySources(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"token-user","email":"t@example.com"}`))
	token := "e30." + payload + ".sig"

	tests := []struct {
		name     string
		devLike  bool
		headers  map[string]string
		wantCode int
		wantBody string
	}{
		{name: "header", headers: map[string]string{"X-User-Id": "hdr-user"}, wantCode: http.StatusOK, wantBody: `"user":"hdr-user"`},
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer " + token}, wantCode: http.StatusOK, wantBody: `"owner":"token-user"`},
		{name: "bearer email", headers: map[string]string{"Authorization": "Bearer " + token}, wantCode: http.StatusOK, wantBody: `"email":"t@example.com"`},
		{name: "bad scheme", headers: map[string]string{"Authorization": "Basic abc"}, wantCode: http.StatusUnauthorized},
		{name: "bad token", headers: map[string]string{"Authorization": "Bearer nope"}, wantCode: http.StatusUnauthorized},
		{name: "dev fallback", devLike: true, wantCode: http.StatusOK, wantBody: `"user":"demo"`},
		{name: "prod missing", devLike: false, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			router := identityRouter(tt.devLike)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d (%s)", tt.wantCode, resp.Code, resp.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(resp.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %s, got %s", tt.wantBody, resp.Body.String())
			}
		})
	}
}
