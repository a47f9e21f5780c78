package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "veritrust/internal/errors"
	"veritrust/internal/service"
)

// requestMeta captures per-request client details for the audit trail.
func requestMeta(c echo.Context) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// respondError maps a domain error onto the standard error shape.
func respondError(c echo.Context, err error) error {
	he := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}
