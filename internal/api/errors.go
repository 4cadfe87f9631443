package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/internal/dialogue"
	"github.com/satriahrh/lingua/usecase"
)

// statusFor maps service errors onto HTTP status codes and error codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, usecase.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case usecase.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, dialogue.ErrMissingImageTask):
		return http.StatusConflict, "bad_state"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes the error envelope. Internal errors are logged and
// replaced with a generic message.
func respondError(c echo.Context, err error, logger *zap.Logger) error {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.String("method", c.Request().Method),
			zap.Error(err))
		message = "Something went wrong, please try again later"
	}
	return c.JSON(status, ErrorResponse{Error: code, Message: message})
}
