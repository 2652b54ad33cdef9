package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/ratelimit"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

const maxMessageLength = 2000

type ConversationConfig struct {
	ListLimit int
	PageSize  int
}

type ConversationUseCase struct {
	conversations repository.ConversationRepository
	notifications repository.NotificationRepository
	limiter       RateLimiter
	now           Clock
	cfg           ConversationConfig
}

func NewConversationUseCase(
	conversations repository.ConversationRepository,
	notifications repository.NotificationRepository,
	limiter RateLimiter,
	now Clock,
	cfg ConversationConfig,
) *ConversationUseCase {
	if now == nil {
		now = systemClock
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 30
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	return &ConversationUseCase{
		conversations: conversations,
		notifications: notifications,
		limiter:       limiter,
		now:           now,
		cfg:           cfg,
	}
}

// EnsureConversation returns the conversation between userID and recipientID,
// creating it on first contact. Safe to call on every chat open.
func (u *ConversationUseCase) EnsureConversation(ctx context.Context, userID, recipientID string) (*entity.Conversation, bool, error) {
	if recipientID == "" {
		return nil, false, errors.BadRequest("recipient is required", nil)
	}
	if userID == recipientID {
		return nil, false, errors.BadRequest("Cannot start a conversation with yourself", nil)
	}

	conv, created, err := u.conversations.CreateIfAbsent(ctx, entity.NewConversation(userID, recipientID, u.now()))
	if err != nil {
		return nil, false, err
	}
	if created {
		logger.Info("conversation created", "id", conv.ID)
	}
	return conv, created, nil
}

// participantOf loads the conversation and checks userID belongs to it.
func (u *ConversationUseCase) participantOf(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conv, err := u.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return conv, nil
}

func (u *ConversationUseCase) SendMessage(ctx context.Context, conversationID, senderID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, errors.BadRequest("Message is too long", nil)
	}

	conv, err := u.participantOf(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	if ok, wait := u.limiter.Allow(senderID, ratelimit.ActionSendMessage); !ok {
		return nil, errors.TooManyRequests("You are sending messages too quickly", wait)
	}

	recipientID := conv.Recipient(senderID)
	msg := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Timestamp:      u.now(),
	}
	if err := u.conversations.AppendMessage(ctx, msg, recipientID); err != nil {
		return nil, err
	}

	n := &entity.Notification{
		UserID:         recipientID,
		Type:           entity.NotificationMessage,
		Title:          "New message",
		Body:           preview(text),
		ConversationID: conversationID,
	}
	if err := u.notifications.Create(ctx, n); err != nil {
		logger.Warn("failed to create message notification", "conversation", conversationID, "error", err)
	}

	return msg, nil
}

func preview(text string) string {
	const max = 80
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + "…"
}

func (u *ConversationUseCase) MarkRead(ctx context.Context, conversationID, userID string) error {
	if _, err := u.participantOf(ctx, conversationID, userID); err != nil {
		return err
	}
	return u.conversations.MarkRead(ctx, conversationID, userID)
}

// Hide removes the conversation from userID's inbox until the next message.
func (u *ConversationUseCase) Hide(ctx context.Context, conversationID, userID string) error {
	if _, err := u.participantOf(ctx, conversationID, userID); err != nil {
		return err
	}
	return u.conversations.Hide(ctx, conversationID, userID)
}

// Messages returns one page of history in chronological order and the cursor
// of the next page, empty when there is none.
func (u *ConversationUseCase) Messages(ctx context.Context, conversationID, userID, cursor string, limit int) ([]*entity.Message, string, error) {
	if _, err := u.participantOf(ctx, conversationID, userID); err != nil {
		return nil, "", err
	}

	after, err := entity.ParseCursor(cursor)
	if err != nil {
		return nil, "", errors.BadRequest("Invalid cursor", err)
	}
	if limit <= 0 || limit > u.cfg.PageSize {
		limit = u.cfg.PageSize
	}

	msgs, err := u.conversations.ListMessages(ctx, conversationID, after, limit)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(msgs) == limit {
		last := msgs[len(msgs)-1]
		next = entity.Cursor{Timestamp: last.Timestamp, ID: last.ID}.Encode()
	}
	return msgs, next, nil
}

// OlderMessages pages backwards from cursor, or from the newest message when
// cursor is empty. The page is chronological and the returned cursor points
// at its oldest message, empty once history is exhausted.
func (u *ConversationUseCase) OlderMessages(ctx context.Context, conversationID, userID, cursor string, limit int) ([]*entity.Message, string, error) {
	if _, err := u.participantOf(ctx, conversationID, userID); err != nil {
		return nil, "", err
	}

	before, err := entity.ParseCursor(cursor)
	if err != nil {
		return nil, "", errors.BadRequest("Invalid cursor", err)
	}
	if limit <= 0 || limit > u.cfg.PageSize {
		limit = u.cfg.PageSize
	}

	msgs, err := u.conversations.ListMessagesBefore(ctx, conversationID, before, limit)
	if err != nil {
		return nil, "", err
	}

	prev := ""
	if len(msgs) == limit {
		oldest := msgs[0]
		prev = entity.Cursor{Timestamp: oldest.Timestamp, ID: oldest.ID}.Encode()
	}
	return msgs, prev, nil
}

func (u *ConversationUseCase) List(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return u.conversations.ListByUser(ctx, userID, u.cfg.ListLimit)
}

func (u *ConversationUseCase) SubscribeInbox(ctx context.Context, userID string, fn func([]*entity.Conversation, error)) (repository.Subscription, error) {
	return u.conversations.WatchInbox(ctx, userID, u.cfg.ListLimit, fn), nil
}

func (u *ConversationUseCase) SubscribeMessages(ctx context.Context, conversationID, userID string, fn func([]*entity.Message, error)) (repository.Subscription, error) {
	if _, err := u.participantOf(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return u.conversations.WatchMessages(ctx, conversationID, u.cfg.PageSize, fn), nil
}
