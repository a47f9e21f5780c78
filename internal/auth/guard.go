package auth

import (
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "veritrust/internal/errors"
	"veritrust/internal/model"
)

// PrincipalFrom resolves the acting user from the parsed session token the
// JWT middleware stored on the context.
func PrincipalFrom(c echo.Context) (Principal, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return Principal{}, apperrors.ErrUnauthenticated
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return Principal{}, apperrors.ErrUnauthenticated
	}
	return claims.Principal(), nil
}

// RequireRole rejects requests whose principal ranks below min. All role
// gating goes through here; handlers never compare role strings inline.
func RequireRole(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := PrincipalFrom(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: apperrors.ErrUnauthenticated.Error(),
					Code:  "UNAUTHENTICATED",
				})
			}
			if !p.Role.AtLeast(min) {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: apperrors.ErrForbidden.Error(),
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// AllowSelfOrRole succeeds when the principal is the target user or ranks
// at least min. Models the "users may edit themselves, admins may edit
// anyone" rule.
func AllowSelfOrRole(p Principal, targetID uuid.UUID, min model.Role) error {
	if p.ID == targetID {
		return nil
	}
	if p.Role.AtLeast(min) {
		return nil
	}
	return apperrors.ErrForbidden
}
