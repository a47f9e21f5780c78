package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SetSessionCookie delivers the session token as an HTTP-only,
// SameSite-Lax cookie scoped to the whole app. Never readable by script.
func SetSessionCookie(c echo.Context, name, token string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.Scheme() == "https",
	})
}

// ClearSessionCookie expires the session cookie. Invalidation is
// client-side only: the token itself remains valid until expiry.
func ClearSessionCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
