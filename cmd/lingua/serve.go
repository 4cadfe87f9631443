package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/internal/api"
	"github.com/satriahrh/lingua/internal/auth"
	"github.com/satriahrh/lingua/internal/websocket"
)

// ServeCmd starts the HTTP and WebSocket server
type ServeCmd struct {
	Port int `short:"p" long:"port" description:"override server.port"`
}

func (s *ServeCmd) Execute(_ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if s.Port > 0 {
		cfg.Server.Port = s.Port
	}

	authenticator, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	hub := websocket.NewHub(a.chat, websocket.HubOptions{
		TTS:            a.tts,
		Metrics:        a.metrics,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)
	a.jobs.Subscribe(hub.NotifyJob)
	go a.jobs.Run(ctx)
	go hub.Run(ctx)

	cleanup := websocket.NewSessionCleanupService(a.sessions, cfg.Session.CleanupInterval, logger)
	cleanup.Start()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
	}))
	e.Use(a.metrics.Middleware())

	api.InitRoutes(e, api.Dependencies{
		Chat:          a.chat,
		Conversations: a.conversation,
		Hub:           hub,
		Auth:          authenticator,
		Metrics:       a.metrics,
		Health:        a.health,
		RateLimits: api.RateLimits{
			TurnsPerMinute:   cfg.RateLimit.TurnsPerMinute,
			CreatesPerMinute: cfg.RateLimit.CreatesPerMinute,
		},
	}, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("address", cfg.Address()))
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shut down HTTP server", zap.Error(err))
	}
	cleanup.Stop()
	if err := a.jobs.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Image jobs did not finish before shutdown", zap.Error(err))
	}
	a.Close(shutdownCtx)
	logger.Info("Server stopped")
	return nil
}
