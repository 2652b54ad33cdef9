package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/errors"
)

func seedNotifications(t *testing.T, repo *notificationRepository, user string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &entity.Notification{
			ID:        fmt.Sprintf("n%02d", i),
			UserID:    user,
			Type:      entity.NotificationGeneral,
			Timestamp: epoch.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestNotificationPageKeyset(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(NewDB()).(*notificationRepository)
	seedNotifications(t, repo, "u1", 5)

	first, err := repo.Page(ctx, "u1", nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "n04", first[0].ID)
	assert.Equal(t, "n02", first[2].ID)

	// a newer insert must not shift the next page
	require.NoError(t, repo.Create(ctx, &entity.Notification{ID: "new", UserID: "u1", Type: entity.NotificationGeneral, Timestamp: epoch.Add(time.Hour)}))

	last := first[2]
	next, err := repo.Page(ctx, "u1", &entity.Cursor{Timestamp: last.Timestamp, ID: last.ID}, 3)
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, "n01", next[0].ID)
	assert.Equal(t, "n00", next[1].ID)
}

func TestNotificationMarkReadIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(NewDB()).(*notificationRepository)
	seedNotifications(t, repo, "u1", 2)

	err := repo.MarkRead(ctx, "u1", []string{"n00", "missing"})
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	unread, err := repo.CountUnread(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	require.NoError(t, repo.MarkRead(ctx, "u1", []string{"n00", "n01"}))
	unread, err = repo.CountUnread(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestNotificationDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(NewDB()).(*notificationRepository)
	seedNotifications(t, repo, "u1", 1)

	require.NoError(t, repo.Delete(ctx, "u1", "n00"))
	require.NoError(t, repo.Delete(ctx, "u1", "n00"))

	page, err := repo.Page(ctx, "u1", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestWatchUnreadTracksBadge(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repo := NewNotificationRepository(db).(*notificationRepository)

	counts := make(chan int64, 16)
	sub := repo.WatchUnread(ctx, "u1", nil, func(n int64, err error) {
		assert.NoError(t, err)
		counts <- n
	})
	defer sub.Stop()

	assert.Equal(t, int64(0), <-counts)
	seedNotifications(t, repo, "u1", 1)
	waitFor(t, func() bool {
		for {
			select {
			case n := <-counts:
				if n == 1 {
					return true
				}
			default:
				return false
			}
		}
	})
}

func TestCountUnreadSkipsExcludedTypes(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(NewDB()).(*notificationRepository)
	for i, typ := range []entity.NotificationType{entity.NotificationMessage, entity.NotificationGeneral, entity.NotificationMessage} {
		require.NoError(t, repo.Create(ctx, &entity.Notification{ID: fmt.Sprintf("x%d", i), UserID: "u1", Type: typ}))
	}

	unread, err := repo.CountUnread(ctx, "u1", []entity.NotificationType{entity.NotificationMessage})
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	unread, err = repo.CountUnread(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)
}
