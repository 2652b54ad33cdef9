package repository

import (
	"context"

	"marketsync/internal/domain/entity"
)

type ConversationRepository interface {
	// CreateIfAbsent stores conv unless a document with its id exists. It
	// returns the stored conversation and whether this call created it.
	CreateIfAbsent(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error)

	// AppendMessage writes msg with a server timestamp and updates the parent's
	// last message, last timestamp, visibility and the recipient's unread counter.
	AppendMessage(ctx context.Context, msg *entity.Message, recipientID string) error
	ListMessages(ctx context.Context, conversationID string, after *entity.Cursor, limit int) ([]*entity.Message, error)
	// ListMessagesBefore returns the limit messages just older than before (the
	// newest ones when before is nil), in chronological order.
	ListMessagesBefore(ctx context.Context, conversationID string, before *entity.Cursor, limit int) ([]*entity.Message, error)

	MarkRead(ctx context.Context, conversationID, userID string) error
	Hide(ctx context.Context, conversationID, userID string) error

	// WatchInbox follows conversations visible to userID, newest first.
	WatchInbox(ctx context.Context, userID string, limit int, fn func([]*entity.Conversation, error)) Subscription
	// WatchMessages follows the latest limit messages of a conversation, oldest first.
	WatchMessages(ctx context.Context, conversationID string, limit int, fn func([]*entity.Message, error)) Subscription
}
