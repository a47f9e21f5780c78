package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"veritrust/internal/auth"
	"veritrust/internal/errors"
	"veritrust/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookieName  string
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookieName string) *AuthHandler {
	return &AuthHandler{authService: authService, cookieName: cookieName}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse represents the current session state.
type SessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          interface{} `json:"user,omitempty"`
}

// Login godoc
// @Summary Log in with email and password
// @Description Issues a session token delivered as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	principal, err := h.authService.Authenticate(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	token, err := h.authService.IssueSession(principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
			Error: "failed to issue session",
			Code:  "SESSION_ISSUE_FAILED",
		})
	}
	auth.SetSessionCookie(c, h.cookieName, token)

	return c.JSON(http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          principal,
	})
}

// Logout godoc
// @Summary Log out
// @Description Clears the session cookie. The token itself stays valid
// @Description until its expiry; there is no server-side revocation list.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	auth.ClearSessionCookie(c, h.cookieName)
	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Session godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	// Re-check the active flag against the store, not just the token.
	user, err := h.authService.CurrentUser(c.Request().Context(), principal)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          user,
	})
}
