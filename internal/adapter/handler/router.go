package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/echoscribe-team/echoscribe/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	sessionHandler   *Session
	dictationHandler *Dictation
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, sessionHandler *Session, dictationHandler *Dictation) *Router {
	return &Router{
		cfg:              cfg,
		sessionHandler:   sessionHandler,
		dictationHandler: dictationHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupSessionRoutes(v1)
	rt.setupDictationRoutes(v1)
}

// setupSessionRoutes configures recording session routes
func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessions := g.Group("/sessions")

	sessions.POST("", rt.sessionHandler.CreateSession)
	sessions.POST("/manual", rt.sessionHandler.CreateManualSession)
	sessions.GET("", rt.sessionHandler.ListSessions)
	sessions.POST("/:id/retry", rt.sessionHandler.RetrySession)
	sessions.GET("/:id", rt.sessionHandler.GetSession)
	sessions.PATCH("/:id", rt.sessionHandler.RenameSession)
	sessions.DELETE("/:id", rt.sessionHandler.DeleteSession)
	sessions.GET("/:id/action-items", rt.sessionHandler.ListActionItems)
	sessions.PUT("/:id/action-items/:index", rt.sessionHandler.SetActionItem)
}

// setupDictationRoutes configures live dictation routes
func (rt *Router) setupDictationRoutes(g *echo.Group) {
	dictations := g.Group("/dictations")

	dictations.POST("", rt.dictationHandler.StartDictation)
	dictations.GET("/:id", rt.dictationHandler.GetDictation)
	dictations.POST("/:id/frames", rt.dictationHandler.PushFrame)
	dictations.POST("/:id/stop", rt.dictationHandler.StopDictation)
	dictations.POST("/:id/cancel", rt.dictationHandler.CancelDictation)
	dictations.POST("/:id/retry", rt.dictationHandler.RetryDictation)
}

// healthCheck returns service liveness
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
