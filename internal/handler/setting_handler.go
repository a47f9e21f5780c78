package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"veritrust/internal/auth"
	"veritrust/internal/service"
)

// SettingHandler handles admin settings endpoints.
type SettingHandler struct {
	svc service.SettingService
}

// NewSettingHandler creates a new setting handler.
func NewSettingHandler(svc service.SettingService) *SettingHandler {
	return &SettingHandler{svc: svc}
}

// UpdateSettingRequest represents a setting write.
type UpdateSettingRequest struct {
	Value       string  `json:"value" validate:"required"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// ListSettings godoc
// @Summary List settings
// @Tags settings
// @Produce json
// @Param category query string false "Filter by category"
// @Success 200 {array} model.Setting
// @Router /settings [get]
func (h *SettingHandler) ListSettings(c echo.Context) error {
	settings, err := h.svc.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// GetSetting godoc
// @Summary Get setting by key
// @Tags settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} model.Setting
// @Failure 404 {object} errors.ErrorResponse
// @Router /settings/{key} [get]
func (h *SettingHandler) GetSetting(c echo.Context) error {
	setting, err := h.svc.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, setting)
}

// SettingHistory godoc
// @Summary Setting change history
// @Tags settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {array} model.SettingChange
// @Router /settings/{key}/history [get]
func (h *SettingHandler) SettingHistory(c echo.Context) error {
	changes, err := h.svc.History(c.Request().Context(), c.Param("key"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, changes)
}

// UpdateSetting godoc
// @Summary Write a setting value
// @Tags settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param request body UpdateSettingRequest true "New value"
// @Success 200 {object} model.Setting
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /settings/{key} [put]
func (h *SettingHandler) UpdateSetting(c echo.Context) error {
	actor, err := auth.PrincipalFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	var req UpdateSettingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	setting, err := h.svc.Update(c.Request().Context(), actor, c.Param("key"), service.SettingUpdate{
		Value:       req.Value,
		Description: req.Description,
		Category:    req.Category,
	}, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, setting)
}

// DeleteSetting godoc
// @Summary Delete a setting
// @Tags settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /settings/{key} [delete]
func (h *SettingHandler) DeleteSetting(c echo.Context) error {
	actor, err := auth.PrincipalFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), actor, c.Param("key"), requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "setting deleted",
	})
}
