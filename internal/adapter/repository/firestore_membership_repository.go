package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/firestoredb"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

type firestoreMembershipRepository struct {
	client *firestore.Client
}

func NewFirestoreMembershipRepository(client *firestore.Client) repository.MembershipRepository {
	return &firestoreMembershipRepository{client: client}
}

// Toggle reads the membership record and the item together and writes the
// record change and the counter delta in the same transaction, so a crash or a
// concurrent toggle can never leave them disagreeing.
func (r *firestoreMembershipRepository) Toggle(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation) (bool, int64, error) {
	itemRef := firestoredb.Item(r.client, ref)
	memberRef := firestoredb.Membership(r.client, userID, rel, ref.ID)
	field := rel.CounterField()

	var (
		active bool
		count  int64
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		itemSnap, err := tx.Get(itemRef)
		if err != nil {
			if firestoredb.IsNotFound(err) {
				return errors.NotFound("Item", err)
			}
			return err
		}
		current := firestoredb.Int64Field(itemSnap, field)

		memberSnap, err := tx.Get(memberRef)
		exists := err == nil && memberSnap.Exists()
		if err != nil && !firestoredb.IsNotFound(err) {
			return err
		}

		if exists {
			active = false
			count = current
			if err := tx.Delete(memberRef); err != nil {
				return err
			}
			if current <= 0 {
				return nil
			}
			count = current - 1
			return tx.Update(itemRef, []firestore.Update{{Path: field, Value: firestore.Increment(-1)}})
		}

		active = true
		count = current + 1
		err = tx.Set(memberRef, map[string]interface{}{
			"itemId":    ref.ID,
			"kind":      string(ref.Kind),
			"createdAt": firestore.ServerTimestamp,
		})
		if err != nil {
			return err
		}
		return tx.Update(itemRef, []firestore.Update{{Path: field, Value: firestore.Increment(1)}})
	})
	if err != nil {
		return false, 0, firestoredb.Translate(err, "Item")
	}

	logger.Debug("membership toggled", "user", userID, "item", ref.String(), "relation", rel, "active", active)
	return active, count, nil
}

func (r *firestoreMembershipRepository) Exists(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation) (bool, error) {
	snap, err := firestoredb.Membership(r.client, userID, rel, ref.ID).Get(ctx)
	if err != nil {
		if firestoredb.IsNotFound(err) {
			return false, nil
		}
		return false, firestoredb.Translate(err, "Membership")
	}
	return snap.Exists(), nil
}

func (r *firestoreMembershipRepository) ListByUser(ctx context.Context, userID string, rel entity.Relation, limit int) ([]*entity.Membership, error) {
	query := firestoredb.UserSub(r.client, userID, rel.Subcollection()).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var memberships []*entity.Membership
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoredb.Translate(err, "Memberships")
		}

		var m entity.Membership
		if err := snap.DataTo(&m); err != nil {
			logger.Warn("skipping unreadable membership", "path", snap.Ref.Path, "error", err)
			continue
		}
		m.UserID = userID
		m.Relation = rel
		if m.ItemID == "" {
			m.ItemID = snap.Ref.ID
		}
		memberships = append(memberships, &m)
	}
	return memberships, nil
}

func (r *firestoreMembershipRepository) Watch(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation, fn func(bool, error)) repository.Subscription {
	doc := firestoredb.Membership(r.client, userID, rel, ref.ID)
	return firestoredb.WatchDocument(ctx, doc, "Membership", func(snap *firestore.DocumentSnapshot, err error) {
		if err != nil {
			fn(false, err)
			return
		}
		fn(snap != nil && snap.Exists(), nil)
	})
}
