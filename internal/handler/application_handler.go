package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"veritrust/internal/auth"
	"veritrust/internal/model"
	"veritrust/internal/repository"
	"veritrust/internal/service"
)

// ApplicationHandler handles application endpoints for one kind. Two
// instances are registered, one under /partnerships and one under
// /registrations.
type ApplicationHandler struct {
	svc       service.ApplicationService
	kind      model.ApplicationKind
	uploadDir string
}

// NewApplicationHandler creates an application handler bound to a kind.
func NewApplicationHandler(svc service.ApplicationService, kind model.ApplicationKind, uploadDir string) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, kind: kind, uploadDir: uploadDir}
}

// CreateApplicationRequest represents a public application submission.
type CreateApplicationRequest struct {
	CompanyName      string   `json:"company_name"`
	ContactName      string   `json:"contact_name" validate:"required"`
	ContactEmail     string   `json:"contact_email" validate:"required,email"`
	ContactPhone     string   `json:"contact_phone"`
	Country          string   `json:"country"`
	Skills           []string `json:"skills"`
	Expertise        []string `json:"expertise"`
	Languages        []string `json:"languages"`
	Motivation       string   `json:"motivation"`
	ProjectedRevenue string   `json:"projected_revenue" validate:"omitempty,numeric"`
}

// TransitionRequest represents a status change.
type TransitionRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// NoteRequest represents a reviewer note.
type NoteRequest struct {
	Body string `json:"body" validate:"required"`
}

// ApplicationListResponse is a paginated application listing.
type ApplicationListResponse struct {
	Applications []model.Application `json:"applications"`
	Total        int64               `json:"total"`
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
}

// Create godoc
// @Summary Submit an application
// @Tags applications
// @Accept json
// @Produce json
// @Param request body CreateApplicationRequest true "Application payload"
// @Success 201 {object} model.Application
// @Failure 400 {object} errors.ErrorResponse
// @Router /partnerships [post]
func (h *ApplicationHandler) Create(c echo.Context) error {
	var req CreateApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	revenue := decimal.Zero
	if req.ProjectedRevenue != "" {
		var err error
		revenue, err = decimal.NewFromString(req.ProjectedRevenue)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid projected_revenue")
		}
	}

	input := service.ApplicationCreate{
		Kind:             h.kind,
		CompanyName:      req.CompanyName,
		ContactName:      req.ContactName,
		ContactEmail:     req.ContactEmail,
		ContactPhone:     req.ContactPhone,
		Country:          req.Country,
		Skills:           req.Skills,
		Expertise:        req.Expertise,
		Languages:        req.Languages,
		Motivation:       req.Motivation,
		ProjectedRevenue: revenue,
	}
	// Submissions may be anonymous; attach the owner when a session exists.
	if p, err := auth.PrincipalFrom(c); err == nil {
		input.UserID = &p.ID
	}

	app, err := h.svc.Create(c.Request().Context(), input, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, app)
}

// List godoc
// @Summary List applications
// @Tags applications
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Filter by status"
// @Param search query string false "Search contact or company"
// @Success 200 {object} ApplicationListResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /partnerships [get]
func (h *ApplicationHandler) List(c echo.Context) error {
	filter := repository.ApplicationListFilter{
		Kind:   h.kind,
		Search: c.QueryParam("search"),
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if v := c.QueryParam("status"); v != "" {
		status := model.ApplicationStatus(v)
		filter.Status = &status
	}

	apps, total, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	return c.JSON(http.StatusOK, ApplicationListResponse{
		Applications: apps,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
	})
}

// Get godoc
// @Summary Get application by id
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} model.Application
// @Failure 404 {object} errors.ErrorResponse
// @Router /partnerships/{id} [get]
func (h *ApplicationHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	app, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// UpdateStatus godoc
// @Summary Change application status
// @Description Applies one status transition, appending a history entry
// @Description in the same transaction.
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body TransitionRequest true "New status"
// @Success 200 {object} model.Application
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /partnerships/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(c echo.Context) error {
	actor, err := auth.PrincipalFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	app, err := h.svc.Transition(c.Request().Context(), actor, id, model.ApplicationStatus(req.Status), req.Notes, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// AddNote godoc
// @Summary Append a note
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body NoteRequest true "Note body"
// @Success 201 {object} model.Note
// @Failure 404 {object} errors.ErrorResponse
// @Router /partnerships/{id}/notes [post]
func (h *ApplicationHandler) AddNote(c echo.Context) error {
	actor, err := auth.PrincipalFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	note, err := h.svc.AddNote(c.Request().Context(), actor, id, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, note)
}

// AddAttachment godoc
// @Summary Upload an attachment
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Application ID"
// @Param file formData file true "File"
// @Success 201 {object} model.Attachment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /partnerships/{id}/attachments [post]
func (h *ApplicationHandler) AddAttachment(c echo.Context) error {
	actor, err := auth.PrincipalFrom(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer src.Close()

	dir := filepath.Join(h.uploadDir, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "storage unavailable")
	}
	// Store under a fresh name so uploads never collide or overwrite.
	storagePath := filepath.Join(dir, fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(fileHeader.Filename)))
	dst, err := os.Create(storagePath)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "storage unavailable")
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "storage write failed")
	}

	att, err := h.svc.AddAttachment(c.Request().Context(), actor, id, service.AttachmentInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		StoragePath: storagePath,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, att)
}
