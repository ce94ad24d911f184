package handler

import (
	"context"  // store interface signatures
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/branch-scheduler/internal/model" // chat message type
)

// ChatHistory reads persisted chat messages, oldest first.
type ChatHistory interface {
	ListDirect(ctx context.Context, userID, otherID uint64) ([]model.ChatMessage, error)
	ListBroadcasts(ctx context.Context) ([]model.ChatMessage, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.ChatMessage, error)
}

// ChatHandler serves chat history for any authenticated user.  Live
// delivery happens over the websocket endpoint.
type ChatHandler struct {
	History ChatHistory
}

func NewChatHandler(history ChatHistory) *ChatHandler {
	if history == nil {
		panic("nil history passed to NewChatHandler")
	}
	return &ChatHandler{History: history}
}

// Direct handles GET /v1/chat/direct/:userId: the conversation between
// the caller and another user in both directions.
func (h *ChatHandler) Direct(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	otherID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.History.ListDirect(ctx, userID, otherID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messagesOrEmpty(list))
}

// Broadcasts handles GET /v1/chat/broadcasts.
func (h *ChatHandler) Broadcasts(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.History.ListBroadcasts(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messagesOrEmpty(list))
}

// Mine handles GET /v1/chat/my: every message the caller sent or
// received.
func (h *ChatHandler) Mine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.History.ListForUser(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, messagesOrEmpty(list))
}

func messagesOrEmpty(list []model.ChatMessage) []model.ChatMessage {
	if list == nil {
		return []model.ChatMessage{}
	}
	return list
}
