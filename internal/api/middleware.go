package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/lingua/internal/auth"
)

const userIDKey = "user_id"

// JWTAuth validates the bearer token and stores the user id on the context.
// The token may also come from the "token" query parameter, which browsers
// need for WebSocket upgrades.
func JWTAuth(authenticator *auth.Authenticator, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				token = c.QueryParam("token")
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required in Authorization header",
				})
			}

			claims, err := authenticator.ValidateToken(token)
			if err != nil {
				logger.Warn("Rejected token", zap.String("path", c.Path()), zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}

			c.Set(userIDKey, claims.UserID)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// userID returns the authenticated user id set by JWTAuth
func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// RateLimit allows perMinute requests per user, with bursts of the same size
func RateLimit(perMinute int, logger *zap.Logger) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id := userID(c); id != "" {
				return id, nil
			}
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn("Request throttled", zap.String("identifier", identifier), zap.String("path", c.Path()))
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many requests, slow down",
			})
		},
	})
}
