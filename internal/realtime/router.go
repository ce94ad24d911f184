package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/repository"
	"github.com/iliyamo/branch-scheduler/internal/service"
)

const maxMessageRunes = 2000

// ChatStore persists chat messages.
type ChatStore interface {
	Create(ctx context.Context, m *model.ChatMessage) error
}

// Router persists outbound messages and fans them out through the
// Registry.  A message is stored before it is routed; recipients that
// are offline can read it later from history.
type Router struct {
	registry *Registry
	users    UserLookup
	chats    ChatStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewRouter(registry *Registry, users UserLookup, chats ChatStore, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		users:    users,
		chats:    chats,
		logger:   logger.With("component", "message_router"),
		now:      time.Now,
	}
}

// SendDirect stores a direct message and routes it to the receiver's
// room and back to the sender's own room.
func (r *Router) SendDirect(ctx context.Context, senderID, receiverID uint64, text string) (model.ChatMessage, error) {
	text, err := cleanText(text)
	if err != nil {
		return model.ChatMessage{}, err
	}
	if _, err := r.users.FindUser(ctx, receiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ChatMessage{}, service.ErrNotFound
		}
		return model.ChatMessage{}, fmt.Errorf("load receiver: %w", err)
	}

	msg := model.ChatMessage{
		SenderID:   senderID,
		ReceiverID: &receiverID,
		Message:    text,
		Type:       model.MessageDirect,
		CreatedAt:  r.now().UTC(),
	}
	if err := r.chats.Create(ctx, &msg); err != nil {
		r.logger.ErrorContext(ctx, "failed to store direct message", "sender_id", senderID, "error", err)
		return model.ChatMessage{}, fmt.Errorf("store message: %w", err)
	}

	payload, err := encode(EventDirectMessage, outbound(msg))
	if err != nil {
		return model.ChatMessage{}, err
	}
	delivered := r.registry.Route(UserRoom(receiverID), payload)
	if receiverID != senderID {
		r.registry.Route(UserRoom(senderID), payload)
	}
	r.logger.DebugContext(ctx, "direct message routed", "message_id", msg.ID, "delivered", delivered)
	return msg, nil
}

// SendBroadcast stores a broadcast and routes it to every connected
// client.  Only admins may broadcast.
func (r *Router) SendBroadcast(ctx context.Context, senderID uint64, senderRole model.Role, text string) (model.ChatMessage, error) {
	switch senderRole {
	case model.RoleSuperAdmin, model.RoleBranchAdmin:
	case model.RoleTrainer, model.RoleMember:
		return model.ChatMessage{}, service.ErrForbidden
	default:
		return model.ChatMessage{}, service.ErrForbidden
	}
	text, err := cleanText(text)
	if err != nil {
		return model.ChatMessage{}, err
	}

	msg := model.ChatMessage{
		SenderID:  senderID,
		Message:   text,
		Type:      model.MessageBroadcast,
		CreatedAt: r.now().UTC(),
	}
	if err := r.chats.Create(ctx, &msg); err != nil {
		r.logger.ErrorContext(ctx, "failed to store broadcast", "sender_id", senderID, "error", err)
		return model.ChatMessage{}, fmt.Errorf("store message: %w", err)
	}

	payload, err := encode(EventBroadcast, outbound(msg))
	if err != nil {
		return model.ChatMessage{}, err
	}
	delivered := r.registry.RouteAll(payload)
	r.logger.InfoContext(ctx, "broadcast routed", "message_id", msg.ID, "sender_id", senderID, "delivered", delivered)
	return msg, nil
}

func outbound(m model.ChatMessage) MessageOut {
	return MessageOut{From: m.SenderID, Message: m.Message, CreatedAt: m.CreatedAt}
}

func cleanText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxMessageRunes {
		return "", ErrInvalidMessage
	}
	return s, nil
}
