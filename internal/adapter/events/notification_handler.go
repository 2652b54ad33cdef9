package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

type NotificationCreator interface {
	Create(ctx context.Context, n *entity.Notification) error
}

// NotificationEvent is published by other services (orders, shops, reviews)
// to drop a notification into a user's inbox. A non-empty ID makes redelivery
// idempotent.
type NotificationEvent struct {
	ID             string `json:"id,omitempty"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	Title          string `json:"title,omitempty"`
	Body           string `json:"body,omitempty"`
	ItemID         string `json:"item_id,omitempty"`
	ItemKind       string `json:"item_kind,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type NotificationHandler struct {
	notifications NotificationCreator
}

func NewNotificationHandler(notifications NotificationCreator) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Handle returns an error only for failures worth redelivering. Malformed
// events and duplicates are logged and acknowledged.
func (h *NotificationHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev NotificationEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		logger.Warn("dropping malformed notification event", "offset", msg.Offset, "error", err)
		return nil
	}

	n := &entity.Notification{
		ID:             ev.ID,
		UserID:         ev.UserID,
		Type:           entity.NotificationType(ev.Type),
		Title:          ev.Title,
		Body:           ev.Body,
		ItemID:         ev.ItemID,
		ItemKind:       entity.ItemKind(ev.ItemKind),
		ConversationID: ev.ConversationID,
	}

	err := h.notifications.Create(ctx, n)
	switch {
	case err == nil:
		logger.Debug("notification event stored", "user_id", n.UserID, "type", n.Type, "id", n.ID)
		return nil
	case errors.Is(err, "CONFLICT"):
		return nil
	case errors.Is(err, "BAD_REQUEST"):
		logger.Warn("dropping invalid notification event", "offset", msg.Offset, "error", err)
		return nil
	default:
		return err
	}
}
