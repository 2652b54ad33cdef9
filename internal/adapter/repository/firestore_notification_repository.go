package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/firestoredb"
	"marketsync/pkg/errors"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{client: client}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	// Zero timestamps are filled in by the server.
	_, err := firestoredb.Notifications(r.client, n.UserID).Doc(n.ID).Create(ctx, n)
	return firestoredb.Translate(err, "Notification")
}

func (r *firestoreNotificationRepository) Page(ctx context.Context, userID string, after *entity.Cursor, limit int) ([]*entity.Notification, error) {
	query := firestoredb.Notifications(r.client, userID).
		OrderBy("timestamp", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if after != nil {
		query = query.StartAfter(after.Timestamp, after.ID)
	}

	iter := query.Limit(limit).Documents(ctx)
	defer iter.Stop()

	var page []*entity.Notification
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoredb.Translate(err, "Notifications")
		}

		var n entity.Notification
		if err := snap.DataTo(&n); err != nil {
			return nil, errors.Internal("Failed to parse notification data", err)
		}
		n.ID = snap.Ref.ID
		n.UserID = userID
		page = append(page, &n)
	}
	return page, nil
}

// MarkRead commits every update or none.
func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	col := firestoredb.Notifications(r.client, userID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, id := range ids {
			if err := tx.Update(col.Doc(id), []firestore.Update{{Path: "isRead", Value: true}}); err != nil {
				return err
			}
		}
		return nil
	})
	return firestoredb.Translate(err, "Notification")
}

func (r *firestoreNotificationRepository) Delete(ctx context.Context, userID, id string) error {
	_, err := firestoredb.Notifications(r.client, userID).Doc(id).Delete(ctx)
	return firestoredb.Translate(err, "Notification")
}

// unreadQuery needs a composite index on (isRead, type) once excluded is set.
// Firestore caps not-in at ten values.
func (r *firestoreNotificationRepository) unreadQuery(userID string, excluded []entity.NotificationType) firestore.Query {
	q := firestoredb.Notifications(r.client, userID).Where("isRead", "==", false)
	if len(excluded) > 0 {
		q = q.Where("type", "not-in", excluded)
	}
	return q
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, userID string, excluded []entity.NotificationType) (int64, error) {
	q := r.unreadQuery(userID, excluded)
	results, err := q.NewAggregationQuery().WithCount("unread").Get(ctx)
	if err != nil {
		return 0, firestoredb.Translate(err, "Notifications")
	}

	v, ok := results["unread"].(*firestorepb.Value)
	if !ok {
		return 0, errors.Internal("Unexpected count aggregation result", nil)
	}
	return v.GetIntegerValue(), nil
}

func (r *firestoreNotificationRepository) WatchUnread(ctx context.Context, userID string, excluded []entity.NotificationType, fn func(int64, error)) repository.Subscription {
	return firestoredb.WatchQuery(ctx, r.unreadQuery(userID, excluded), "Notifications", func(qs *firestore.QuerySnapshot, err error) {
		if err != nil {
			fn(0, err)
			return
		}
		fn(int64(qs.Size), nil)
	})
}
