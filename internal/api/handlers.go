package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/websocket"
	"github.com/satriahrh/lingua/usecase"
)

// ConversationManager is the conversation resource behind the REST API
type ConversationManager interface {
	Create(ctx context.Context, userID, title, language string) (*entities.Conversation, error)
	Get(ctx context.Context, userID, id string) (*entities.Conversation, error)
	List(ctx context.Context, req usecase.ListRequest) (*usecase.ConversationPage, error)
	Update(ctx context.Context, userID, id string, update usecase.ConversationUpdate) (*entities.Conversation, error)
	Delete(ctx context.Context, userID, id string) error
	ImageStatus(ctx context.Context, taskID string) (repositories.ImageJobStatus, error)
}

type handlers struct {
	chat          websocket.Turner
	conversations ConversationManager
	hub           *websocket.Hub
	health        func(ctx context.Context) error
	logger        *zap.Logger
}

func (h *handlers) healthCheck(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Service: "lingua"}
	if h.health == nil {
		return c.JSON(http.StatusOK, resp)
	}
	if err := h.health(c.Request().Context()); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		resp.Status, resp.Storage = "degraded", "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	resp.Storage = "ok"
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) createConversation(c echo.Context) error {
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Invalid request format"})
	}
	conv, err := h.conversations.Create(c.Request().Context(), userID(c), req.Title, req.Language)
	if err != nil {
		return respondError(c, err, h.logger)
	}
	return c.JSON(http.StatusCreated, conv)
}

func (h *handlers) listConversations(c echo.Context) error {
	page, err := intParam(c, "page")
	if err != nil {
		return respondError(c, err, h.logger)
	}
	perPage, err := intParam(c, "per_page")
	if err != nil {
		return respondError(c, err, h.logger)
	}

	result, err := h.conversations.List(c.Request().Context(), usecase.ListRequest{
		UserID:        userID(c),
		Page:          page,
		PerPage:       perPage,
		DialogueState: c.QueryParam("dialogue_state"),
		SortField:     c.QueryParam("sort_field"),
		SortOrder:     c.QueryParam("sort_order"),
	})
	if err != nil {
		return respondError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handlers) getConversation(c echo.Context) error {
	conv, err := h.conversations.Get(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *handlers) updateConversation(c echo.Context) error {
	var req UpdateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Invalid request format"})
	}
	conv, err := h.conversations.Update(c.Request().Context(), userID(c), c.Param("id"), req)
	if err != nil {
		return respondError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *handlers) deleteConversation(c echo.Context) error {
	if err := h.conversations.Delete(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return respondError(c, err, h.logger)
	}
	return c.NoContent(http.StatusNoContent)
}

// postMessage runs one chat turn. It accepts multipart forms with optional
// audio and image files, or a JSON TurnBody.
func (h *handlers) postMessage(c echo.Context) error {
	req, err := h.turnRequest(c)
	if err != nil {
		return respondError(c, err, h.logger)
	}
	resp, err := h.chat.Turn(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) turnRequest(c echo.Context) (usecase.TurnRequest, error) {
	req := usecase.TurnRequest{UserID: userID(c), ConversationID: c.Param("id")}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) && !strings.HasPrefix(contentType, echo.MIMEApplicationForm) {
		var body TurnBody
		if err := c.Bind(&body); err != nil {
			return req, fmt.Errorf("%w: malformed body", usecase.ErrInvalidInput)
		}
		req.Text, req.ImageURL, req.Language = body.Text, body.ImageURL, body.Language
		return req, nil
	}

	req.Text = c.FormValue("text")
	req.ImageURL = c.FormValue("image_url")
	req.Language = c.FormValue("language")

	var err error
	if req.Audio, err = formUpload(c, "audio"); err != nil {
		return req, err
	}
	if req.Image, err = formUpload(c, "image"); err != nil {
		return req, err
	}
	return req, nil
}

// formUpload reads an optional multipart file
func formUpload(c echo.Context, field string) (*usecase.Upload, error) {
	header, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not read %s: %v", usecase.ErrInvalidInput, field, err)
	}
	if header.Size > usecase.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", usecase.ErrInvalidInput, field, usecase.MaxUploadBytes)
	}
	data, err := readUpload(header)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read %s: %v", usecase.ErrInvalidInput, field, err)
	}
	return &usecase.Upload{Filename: header.Filename, Data: data}, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, usecase.MaxUploadBytes+1))
}

func (h *handlers) imageStatus(c echo.Context) error {
	status, err := h.conversations.ImageStatus(c.Request().Context(), c.Param("task_id"))
	if err != nil {
		return respondError(c, err, h.logger)
	}
	return c.JSON(http.StatusOK, ImageStatusResponse{
		TaskID:   status.ID,
		Status:   string(status.Status),
		ImageURL: status.URL,
		Error:    status.Error,
	})
}

func (h *handlers) serveWebsocket(c echo.Context) error {
	h.logger.Info("WebSocket connection authenticated", zap.String("userID", userID(c)))
	return websocket.HandleWebSocket(h.hub, c, userID(c))
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", usecase.ErrInvalidInput, name)
	}
	return n, nil
}
