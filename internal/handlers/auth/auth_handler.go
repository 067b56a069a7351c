// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/middleware"
	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/response"
	"jobboard-service/internal/pkg/session"
	authUsecase "jobboard-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	cookie      session.Cookie
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, cookie session.Cookie, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

// ========== Login ==========

// Login verifies credentials and sets the session cookie. The token is never
// part of the response body.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	h.cookie.Set(c.Writer, result.Token, result.ExpiresAt)
	response.Success(c, http.StatusOK, "login successful", auth.LoginResponse{
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

// ========== Logout ==========

// Logout clears the session cookie. It succeeds with or without a valid
// session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, ok := session.TokenFromRequest(c.Request); ok {
		h.authService.Logout(c.Request.Context(), token)
	}
	h.cookie.Clear(c.Writer)
	response.Success(c, http.StatusOK, "logout successful", nil)
}

// ========== Profile ==========

// GetMe returns the principal as currently stored, not as the token says.
func (h *AuthHandler) GetMe(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	response.Success(c, http.StatusOK, "", auth.NewUserInfo(principal))
}

// ========== Password Management ==========

// ChangePassword handles password change (requires auth)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), principal, &req); err != nil {
		if _, ok := xerrors.AsRejection(err); !ok {
			h.logger.Error("password change failed", zap.Int64("user_id", principal.ID), zap.Error(err))
		}
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "password changed successfully", nil)
}
