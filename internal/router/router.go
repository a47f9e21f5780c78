package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"veritrust/internal/auth"
	"veritrust/internal/config"
	"veritrust/internal/handler"
	"veritrust/internal/model"
)

// Register wires routes and middleware. Every role-gated route goes
// through auth.RequireRole; self-or-admin rules live in the handlers via
// auth.AllowSelfOrRole.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	tokens *auth.TokenService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	partnershipHandler *handler.ApplicationHandler,
	registrationHandler *handler.ApplicationHandler,
	settingHandler *handler.SettingHandler,
	auditHandler *handler.AuditHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes. Application submissions accept anonymous callers but
	// pick up the owner when a session cookie is present.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	optional := auth.OptionalSession(tokens, cfg.CookieName)
	api.POST("/partnerships", partnershipHandler.Create, optional)
	api.POST("/registrations", registrationHandler.Create, optional)

	// Secured routes: session cookie required. Parsing goes through the
	// token service so the context carries the same claims shape as
	// OptionalSession.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + cfg.CookieName,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := tokens.Validate(token)
			if err != nil {
				return nil, err
			}
			return &jwt.Token{Claims: claims, Valid: true}, nil
		},
	}))

	secured.GET("/session", authHandler.Session)

	// Self-or-admin rules are enforced inside the handlers.
	secured.GET("/users/:id", userHandler.GetUser)
	secured.PUT("/users/:id", userHandler.UpdateUser)

	adminUsers := secured.Group("/users", auth.RequireRole(model.RoleAdmin))
	adminUsers.GET("", userHandler.ListUsers)
	adminUsers.POST("", userHandler.CreateUser)
	adminUsers.DELETE("/:id", userHandler.DeactivateUser)

	for prefix, h := range map[string]*handler.ApplicationHandler{
		"/partnerships":  partnershipHandler,
		"/registrations": registrationHandler,
	} {
		review := secured.Group(prefix, auth.RequireRole(model.RoleReviewer))
		review.GET("", h.List)
		review.GET("/:id", h.Get)
		review.PATCH("/:id/status", h.UpdateStatus)
		review.POST("/:id/notes", h.AddNote)
		review.POST("/:id/attachments", h.AddAttachment)
	}

	// DELETE requires SUPER_ADMIN; the service enforces it on top of the
	// group's ADMIN floor.
	settings := secured.Group("/settings", auth.RequireRole(model.RoleAdmin))
	settings.GET("", settingHandler.ListSettings)
	settings.GET("/:key", settingHandler.GetSetting)
	settings.GET("/:key/history", settingHandler.SettingHistory)
	settings.PUT("/:key", settingHandler.UpdateSetting)
	settings.DELETE("/:key", settingHandler.DeleteSetting)

	secured.GET("/audit-logs", auditHandler.ListAuditLogs, auth.RequireRole(model.RoleAdmin))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
