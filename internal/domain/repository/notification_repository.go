package repository

import (
	"context"

	"marketsync/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	// Page returns up to limit notifications newest first, strictly after the cursor.
	Page(ctx context.Context, userID string, after *entity.Cursor, limit int) ([]*entity.Notification, error)
	// MarkRead sets isRead on all ids in one atomic batch.
	MarkRead(ctx context.Context, userID string, ids []string) error
	Delete(ctx context.Context, userID, id string) error
	// CountUnread and WatchUnread skip notifications whose type is in excluded.
	CountUnread(ctx context.Context, userID string, excluded []entity.NotificationType) (int64, error)
	WatchUnread(ctx context.Context, userID string, excluded []entity.NotificationType, fn func(count int64, err error)) Subscription
}
