package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"veritrust/internal/model"
	"veritrust/internal/repository"
	"veritrust/internal/service"
)

// AuditHandler exposes the read-only audit log endpoint. There is no
// write surface; entries come from the services.
type AuditHandler struct {
	svc service.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(svc service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// AuditListResponse is a paginated audit log listing.
type AuditListResponse struct {
	Entries []model.AuditLog `json:"entries"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

// ListAuditLogs godoc
// @Summary List audit log entries
// @Tags audit
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param action query string false "Filter by action"
// @Param entity_type query string false "Filter by entity type"
// @Success 200 {object} AuditListResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c echo.Context) error {
	filter := repository.AuditListFilter{
		Action:     c.QueryParam("action"),
		EntityType: c.QueryParam("entity_type"),
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	entries, total, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	return c.JSON(http.StatusOK, AuditListResponse{
		Entries: entries,
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	})
}
