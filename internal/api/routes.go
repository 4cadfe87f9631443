package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/internal/auth"
	"github.com/satriahrh/lingua/internal/metrics"
	"github.com/satriahrh/lingua/internal/websocket"
)

// RateLimits are per-user request budgets
type RateLimits struct {
	TurnsPerMinute   int
	CreatesPerMinute int
}

// Dependencies are the services the HTTP API exposes
type Dependencies struct {
	Chat          websocket.Turner
	Conversations ConversationManager
	Hub           *websocket.Hub
	Auth          *auth.Authenticator
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Health reports storage health. Optional.
	Health     func(ctx context.Context) error
	RateLimits RateLimits
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	h := &handlers{
		chat:          deps.Chat,
		conversations: deps.Conversations,
		hub:           deps.Hub,
		health:        deps.Health,
		logger:        logger,
	}

	e.GET("/health", h.healthCheck)
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	requireUser := JWTAuth(deps.Auth, logger)

	v1 := e.Group("/api/v1", requireUser)

	v1.POST("/conversations", h.createConversation, RateLimit(deps.RateLimits.CreatesPerMinute, logger))
	v1.GET("/conversations", h.listConversations)
	v1.GET("/conversations/:id", h.getConversation)
	v1.PATCH("/conversations/:id", h.updateConversation)
	v1.PUT("/conversations/:id", h.updateConversation)
	v1.DELETE("/conversations/:id", h.deleteConversation)

	turnLimit := RateLimit(deps.RateLimits.TurnsPerMinute, logger)
	v1.POST("/conversations/:id/messages", h.postMessage, turnLimit)
	// Without an id the latest conversation continues, or a new one starts.
	v1.POST("/messages", h.postMessage, turnLimit)

	v1.GET("/image-status/:task_id", h.imageStatus)

	if deps.Hub != nil {
		e.GET("/ws", h.serveWebsocket, requireUser)
	}

	e.RouteNotFound("/api/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "No such endpoint"})
	})
}
