package auth

import (
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// OptionalSession parses the session cookie when present without
// rejecting anonymous requests. Used on public submission routes so an
// authenticated submission gets an owner attached.
func OptionalSession(tokens *TokenService, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err == nil && cookie.Value != "" {
				if claims, err := tokens.Validate(cookie.Value); err == nil {
					c.Set("user", &jwt.Token{Claims: claims, Valid: true})
				}
			}
			return next(c)
		}
	}
}
