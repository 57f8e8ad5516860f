// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/domain/auth"
	"melodia/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
	reset   *auth.PasswordResetService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, reset *auth.PasswordResetService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
		reset:       reset,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(ctx, req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setAuthCookies(c, tokens)
	c.JSON(http.StatusOK, dto.LoginResponse{
		Tokens: dto.FromTokenPair(tokens),
		User:   dto.FromUser(user),
	})
}

// Refresh handles POST /auth/refresh. The refresh token comes from the body
// or from the auth cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RefreshRequest
	// Body is optional for cookie-based clients.
	_ = c.ShouldBindJSON(&req)

	token := req.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(auth.RefreshCookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		h.Error(c, apperror.NewAuthRequired("missing refresh token"))
		return
	}

	tokens, err := h.service.Refresh(ctx, token)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setAuthCookies(c, tokens)
	c.JSON(http.StatusOK, dto.FromTokenPair(tokens))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	if err := h.service.Logout(ctx, userID); err != nil {
		h.Error(c, err)
		return
	}

	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

// RequestPasswordReset handles POST /auth/password-reset/request.
// The response never reveals whether the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RequestResetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.reset.RequestReset(ctx, req.Email); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "if the email is registered, a reset code has been sent")
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConfirmResetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.reset.VerifyAndReset(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password updated")
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, tokens *auth.TokenPair) {
	for _, cookie := range tokens.Cookies {
		sameSite := http.SameSiteLaxMode
		if cookie.SameSiteStrict {
			sameSite = http.SameSiteStrictMode
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Path:     "/",
			MaxAge:   int(cookie.MaxAge / time.Second),
			HttpOnly: cookie.HTTPOnly,
			Secure:   cookie.Secure,
			SameSite: sameSite,
		})
	}
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{auth.AccessCookieName, auth.RefreshCookieName} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
