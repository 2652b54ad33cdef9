package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = r.db.serverTime()
	}

	inbox := r.db.notifications[n.UserID]
	if inbox == nil {
		inbox = make(map[string]*entity.Notification)
		r.db.notifications[n.UserID] = inbox
	}
	if _, ok := inbox[n.ID]; ok {
		return errors.Conflict("Notification already exists")
	}
	stored := *n
	inbox[n.ID] = &stored
	r.db.commit()
	return nil
}

func (r *notificationRepository) Page(ctx context.Context, userID string, after *entity.Cursor, limit int) ([]*entity.Notification, error) {
	r.db.mu.Lock()
	var all []*entity.Notification
	for _, n := range r.db.notifications[userID] {
		if after != nil && !after.Before(n.Timestamp, n.ID) {
			continue
		}
		c := *n
		all = append(all, &c)
	}
	r.db.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].ID > all[j].ID
		}
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID string, ids []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inbox := r.db.notifications[userID]
	for _, id := range ids {
		if _, ok := inbox[id]; !ok {
			return errors.NotFound("Notification", nil)
		}
	}
	for _, id := range ids {
		inbox[id].IsRead = true
	}
	if len(ids) > 0 {
		r.db.commit()
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.notifications[userID][id]; !ok {
		return nil
	}
	delete(r.db.notifications[userID], id)
	r.db.commit()
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string, excluded []entity.NotificationType) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.unread(userID, excluded), nil
}

func (r *notificationRepository) unread(userID string, excluded []entity.NotificationType) int64 {
	var n int64
	for _, item := range r.db.notifications[userID] {
		if !item.IsRead && !slices.Contains(excluded, item.Type) {
			n++
		}
	}
	return n
}

func (r *notificationRepository) WatchUnread(ctx context.Context, userID string, excluded []entity.NotificationType, fn func(int64, error)) repository.Subscription {
	return r.db.watch(ctx, func() {
		r.db.mu.Lock()
		n := r.unread(userID, excluded)
		r.db.mu.Unlock()
		fn(n, nil)
	})
}
