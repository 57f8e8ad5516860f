package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
)

func TestRecovery_PanicBecomesInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// Same ordering as the router: Recovery outermost, ErrorHandler inside.
	r.Use(Recovery(), ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != apperror.CodeInternal {
		t.Errorf("expected code %q, got %q", apperror.CodeInternal, body.Code)
	}
	if body.Message == "kaboom" {
		t.Error("panic value must not leak into the client message")
	}
}
