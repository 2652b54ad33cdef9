package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

// Client frames.
const (
	MessageTypePing                = "ping"
	MessageTypeSubscribeInbox      = "subscribe_inbox"
	MessageTypeSubscribeMessages   = "subscribe_messages"
	MessageTypeSubscribeUnread     = "subscribe_unread"
	MessageTypeSubscribeMembership = "subscribe_membership"
	MessageTypeUnsubscribe         = "unsubscribe"
)

// Server frames.
const (
	MessageTypePong             = "pong"
	MessageTypeSubscribed       = "subscribed"
	MessageTypeUnsubscribed     = "unsubscribed"
	MessageTypeInboxSnapshot    = "inbox_snapshot"
	MessageTypeMessagesSnapshot = "messages_snapshot"
	MessageTypeUnreadCount      = "unread_count"
	MessageTypeMembershipStatus = "membership_status"
	MessageTypeError            = "error"
)

type WSMessage struct {
	Type           string      `json:"type"`
	SubscriptionID string      `json:"subscription_id,omitempty"`
	ConversationID string      `json:"conversation_id,omitempty"`
	ItemKind       string      `json:"item_kind,omitempty"`
	ItemID         string      `json:"item_id,omitempty"`
	Relation       string      `json:"relation,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      string      `json:"timestamp,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MembershipData is the payload of a membership_status frame.
type MembershipData struct {
	ItemKind string `json:"item_kind"`
	ItemID   string `json:"item_id"`
	Relation string `json:"relation"`
	Active   bool   `json:"active"`
}

type ConversationSource interface {
	SubscribeInbox(ctx context.Context, userID string, fn func([]*entity.Conversation, error)) (repository.Subscription, error)
	SubscribeMessages(ctx context.Context, conversationID, userID string, fn func([]*entity.Message, error)) (repository.Subscription, error)
}

type UnreadSource interface {
	SubscribeUnread(ctx context.Context, userID string, fn func(int64, error)) (repository.Subscription, error)
}

type MembershipSource interface {
	Watch(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation, fn func(bool, error)) (repository.Subscription, error)
}

// Sources are the live queries a client may subscribe to.
type Sources struct {
	Conversations ConversationSource
	Notifications UnreadSource
	Memberships   MembershipSource
}

func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.sendError(client, "", errors.BadRequest("Invalid message format", err))
		return
	}

	switch msg.Type {
	case MessageTypePing:
		m.send(client, WSMessage{Type: MessageTypePong})

	case MessageTypeSubscribeInbox:
		m.subscribe(client, msg, func(id string) (repository.Subscription, error) {
			return m.sources.Conversations.SubscribeInbox(m.ctx, client.UserID, func(convs []*entity.Conversation, err error) {
				m.deliver(client, id, MessageTypeInboxSnapshot, "", convs, err)
			})
		})

	case MessageTypeSubscribeMessages:
		if msg.ConversationID == "" {
			m.sendError(client, "", errors.BadRequest("conversation_id is required", nil))
			return
		}
		m.subscribe(client, msg, func(id string) (repository.Subscription, error) {
			return m.sources.Conversations.SubscribeMessages(m.ctx, msg.ConversationID, client.UserID, func(msgs []*entity.Message, err error) {
				m.deliver(client, id, MessageTypeMessagesSnapshot, msg.ConversationID, msgs, err)
			})
		})

	case MessageTypeSubscribeUnread:
		m.subscribe(client, msg, func(id string) (repository.Subscription, error) {
			return m.sources.Notifications.SubscribeUnread(m.ctx, client.UserID, func(n int64, err error) {
				m.deliver(client, id, MessageTypeUnreadCount, "", n, err)
			})
		})

	case MessageTypeSubscribeMembership:
		ref := entity.ItemRef{Kind: entity.ItemKind(msg.ItemKind), ID: msg.ItemID}
		rel := entity.Relation(msg.Relation)
		m.subscribe(client, msg, func(id string) (repository.Subscription, error) {
			return m.sources.Memberships.Watch(m.ctx, client.UserID, ref, rel, func(active bool, err error) {
				m.deliver(client, id, MessageTypeMembershipStatus, "", MembershipData{
					ItemKind: msg.ItemKind,
					ItemID:   msg.ItemID,
					Relation: msg.Relation,
					Active:   active,
				}, err)
			})
		})

	case MessageTypeUnsubscribe:
		if !m.removeSub(client, msg.SubscriptionID) {
			m.sendError(client, msg.SubscriptionID, errors.NotFound("Subscription", nil))
			return
		}
		m.send(client, WSMessage{Type: MessageTypeUnsubscribed, SubscriptionID: msg.SubscriptionID})

	default:
		m.sendError(client, "", errors.BadRequest("Unknown message type "+msg.Type, nil))
	}
}

func (m *Manager) subscribe(client *Client, msg WSMessage, open func(id string) (repository.Subscription, error)) {
	id := uuid.New().String()
	sub, err := open(id)
	if err != nil {
		m.sendError(client, "", err)
		return
	}
	m.addSub(client, id, sub)
	m.send(client, WSMessage{Type: MessageTypeSubscribed, SubscriptionID: id, ConversationID: msg.ConversationID, Data: msg.Type})
}

func (m *Manager) deliver(client *Client, subID, frameType, conversationID string, data interface{}, err error) {
	if err != nil {
		m.sendError(client, subID, err)
		return
	}
	m.send(client, WSMessage{Type: frameType, SubscriptionID: subID, ConversationID: conversationID, Data: data})
}

func (m *Manager) send(client *Client, msg WSMessage) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	frame, err := json.Marshal(msg)
	if err != nil {
		logger.Error("websocket frame encoding failed", "type", msg.Type, "error", err)
		return
	}
	client.enqueue(frame)
}

func (m *Manager) sendError(client *Client, subID string, err error) {
	data := ErrorData{Code: "INTERNAL_ERROR", Message: "Subscription failed"}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		data = ErrorData{Code: appErr.Code, Message: appErr.Message}
	}
	m.send(client, WSMessage{Type: MessageTypeError, SubscriptionID: subID, Data: data})
}
