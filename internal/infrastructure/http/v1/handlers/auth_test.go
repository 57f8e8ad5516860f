package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"melodia/internal/domain/auth"
)

func TestSetAuthCookies_MaxAgeInSeconds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &auth.TokenPair{
		Cookies: []auth.CookieSpec{
			{
				Name:           auth.AccessCookieName,
				Value:          "access-token",
				MaxAge:         15 * time.Minute,
				HTTPOnly:       true,
				Secure:         true,
				SameSiteStrict: true,
			},
			{
				Name:           auth.RefreshCookieName,
				Value:          "refresh-token",
				MaxAge:         7 * 24 * time.Hour,
				HTTPOnly:       true,
				Secure:         true,
				SameSiteStrict: true,
			},
		},
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	h := &AuthHandler{}
	h.setAuthCookies(c, tokens)

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	wantMaxAge := map[string]int{
		auth.AccessCookieName:  15 * 60,
		auth.RefreshCookieName: 7 * 24 * 60 * 60,
	}
	for _, cookie := range cookies {
		want, ok := wantMaxAge[cookie.Name]
		if !ok {
			t.Fatalf("unexpected cookie %q", cookie.Name)
		}
		if cookie.MaxAge != want {
			t.Errorf("cookie %q max-age = %d, want %d seconds", cookie.Name, cookie.MaxAge, want)
		}
		if !cookie.HttpOnly {
			t.Errorf("cookie %q is not http-only", cookie.Name)
		}
	}
}
