package usecase

import (
	"context"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

type NotificationUseCase struct {
	notifications repository.NotificationRepository
	pageSize      int
	excluded      map[entity.NotificationType]bool
	excludedList  []entity.NotificationType
}

func NewNotificationUseCase(notifications repository.NotificationRepository, pageSize int, excludedTypes []string) *NotificationUseCase {
	if pageSize <= 0 {
		pageSize = 20
	}
	excluded := make(map[entity.NotificationType]bool, len(excludedTypes))
	var excludedList []entity.NotificationType
	for _, t := range excludedTypes {
		typ := entity.NotificationType(t)
		if !excluded[typ] {
			excluded[typ] = true
			excludedList = append(excludedList, typ)
		}
	}
	return &NotificationUseCase{
		notifications: notifications,
		pageSize:      pageSize,
		excluded:      excluded,
		excludedList:  excludedList,
	}
}

type NotificationPage struct {
	Items      []*entity.Notification `json:"items"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// LoadPage returns the next page of notifications, newest first, without the
// excluded types. Fetching is what marks a notification read: every unread one
// fetched here is flipped in a single batch. A failed batch is logged and the
// page is still returned; the next load retries it.
func (u *NotificationUseCase) LoadPage(ctx context.Context, userID, cursor string) (*NotificationPage, error) {
	after, err := entity.ParseCursor(cursor)
	if err != nil {
		return nil, errors.BadRequest("Invalid cursor", err)
	}

	fetched, err := u.notifications.Page(ctx, userID, after, u.pageSize)
	if err != nil {
		return nil, err
	}

	page := &NotificationPage{Items: make([]*entity.Notification, 0, len(fetched))}
	var unread []string
	for _, n := range fetched {
		if !n.IsRead {
			unread = append(unread, n.ID)
		}
		if !u.excluded[n.Type] {
			page.Items = append(page.Items, n)
		}
	}

	if len(fetched) == u.pageSize {
		last := fetched[len(fetched)-1]
		page.NextCursor = entity.Cursor{Timestamp: last.Timestamp, ID: last.ID}.Encode()
	}

	if len(unread) > 0 {
		if err := u.notifications.MarkRead(ctx, userID, unread); err != nil {
			logger.LogStoreError(ctx, "mark notifications read", "users/"+userID+"/notifications", err)
		}
	}
	return page, nil
}

func (u *NotificationUseCase) Create(ctx context.Context, n *entity.Notification) error {
	if n.UserID == "" {
		return errors.BadRequest("notification recipient is required", nil)
	}
	if !n.Type.Valid() {
		return errors.BadRequest("unknown notification type "+string(n.Type), nil)
	}
	if n.ItemKind != "" {
		if _, err := entity.ParseItemKind(string(n.ItemKind)); err != nil {
			return errors.BadRequest(err.Error(), err)
		}
	}
	n.IsRead = false
	return u.notifications.Create(ctx, n)
}

// Send creates a notification on behalf of senderID. Only peer types are
// allowed; system types such as shop_approved come from the server itself.
func (u *NotificationUseCase) Send(ctx context.Context, senderID string, n *entity.Notification) error {
	if !n.Type.Valid() {
		return errors.BadRequest("unknown notification type "+string(n.Type), nil)
	}
	if !n.Type.UserCreatable() {
		return errors.Forbidden("Notification type "+string(n.Type)+" cannot be sent by users", nil)
	}
	n.SenderID = senderID
	return u.Create(ctx, n)
}

func (u *NotificationUseCase) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return errors.BadRequest("notification id is required", nil)
	}
	return u.notifications.Delete(ctx, userID, id)
}

// UnreadCount is the badge: unread notifications of the types LoadPage shows.
func (u *NotificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return u.notifications.CountUnread(ctx, userID, u.excludedList)
}

func (u *NotificationUseCase) SubscribeUnread(ctx context.Context, userID string, fn func(int64, error)) (repository.Subscription, error) {
	return u.notifications.WatchUnread(ctx, userID, u.excludedList, fn), nil
}
