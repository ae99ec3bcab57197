package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pradipta/geminichat/domain"
	"github.com/pradipta/geminichat/usecase"
	"github.com/pradipta/geminichat/utils/log"
)

// ChatHandler exposes the chat pipeline and the session records over HTTP.
type ChatHandler struct {
	chat        *usecase.ChatService
	sessions    *usecase.SessionService
	llm         domain.Llm
	skipPersist bool
	log         *zap.Logger
}

func NewChatHandler(chat *usecase.ChatService, sessions *usecase.SessionService, llm domain.Llm, skipPersist bool, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:        chat,
		sessions:    sessions,
		llm:         llm,
		skipPersist: skipPersist,
		log:         logger,
	}
}

type chatRequest struct {
	domain.ChatRequest
	SessionID   string `json:"session_id,omitempty"`
	SessionName string `json:"session_name,omitempty"`
}

type chatResponse struct {
	Text          string `json:"text"`
	SessionID     string `json:"session_id"`
	SessionIDType string `json:"session_id_type"`
}

type upsertRequest struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Data      *string `json:"data,omitempty"`
	EndReason *string `json:"end_reason,omitempty"`
}

// Chat runs one turn. It always answers 200 with text; provider and store
// failures come back pre-formatted in the text field, never as an error body.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chat request")
	}

	id, err := parseSessionID(req.SessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session_id")
	}

	ctx := c.Request().Context()
	ctx = context.WithValue(ctx, "session_id", req.SessionID)
	ctx = context.WithValue(ctx, "model", req.Model)
	log.WithCtx(ctx).Debug("handling chat turn")

	turn := h.chat.Handle(ctx, id, req.SessionName, req.ChatRequest)
	return c.JSON(http.StatusOK, chatResponse{
		Text:          turn.Text,
		SessionID:     turn.SessionID.String(),
		SessionIDType: string(turn.SessionID.Kind),
	})
}

// Models returns the selectable model list, possibly the degraded sentinel.
func (h *ChatHandler) Models(c echo.Context) error {
	force := c.QueryParam("refresh") == "true"
	return c.JSON(http.StatusOK, h.llm.Models(c.Request().Context(), force))
}

func (h *ChatHandler) ListSessions(c echo.Context) error {
	sessions, err := h.sessions.ListSessions(c.Request().Context())
	if err != nil {
		return h.storeError(err)
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *ChatHandler) UpsertSession(c echo.Context) error {
	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session request")
	}
	id, err := parseSessionID(req.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	id = h.sessions.UpsertSession(c.Request().Context(), req.Name, req.Data, id, req.EndReason, h.skipPersist)
	return c.JSON(http.StatusOK, map[string]string{
		"id":      id.String(),
		"id_type": string(id.Kind),
	})
}

func (h *ChatHandler) LoadSession(c echo.Context) error {
	row, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	data, err := h.sessions.LoadSession(c.Request().Context(), row)
	if err != nil {
		return h.storeError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"data": data})
}

func (h *ChatHandler) SessionMessages(c echo.Context) error {
	id, err := parseSessionID(c.Param("id"))
	if err != nil || id.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	messages, err := h.sessions.SessionMessages(c.Request().Context(), id, h.skipPersist)
	if err != nil {
		return h.storeError(err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) DeleteSession(c echo.Context) error {
	row, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	if err := h.sessions.DeleteSession(c.Request().Context(), row); err != nil {
		return h.storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "geminichat",
	})
}

func (h *ChatHandler) storeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrPersistenceDisabled):
		return echo.NewHTTPError(http.StatusConflict, "persistence is disabled")
	default:
		h.log.Error("store operation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "store operation failed")
	}
}

// parseSessionID accepts a decimal row id (persisted), any other non-empty
// token (ephemeral), or empty for "no session yet".
func parseSessionID(raw string) (domain.SessionID, error) {
	if raw == "" {
		return domain.SessionID{}, nil
	}
	if row, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return domain.PersistedSessionID(row), nil
	}
	return domain.EphemeralSessionID(raw), nil
}
