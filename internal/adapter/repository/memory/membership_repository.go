package memory

import (
	"context"
	"sort"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type membershipRepository struct {
	db *DB
}

func NewMembershipRepository(db *DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Toggle(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation) (bool, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.items[ref]
	if !ok {
		return false, 0, errors.NotFound("Item", nil)
	}

	key := membershipKey{userID: userID, rel: rel, itemID: ref.ID}
	current := item.Counter(rel)

	if _, exists := r.db.memberships[key]; exists {
		delete(r.db.memberships, key)
		if current > 0 {
			item.SetCounter(rel, current-1)
		}
		r.db.commit()
		return false, item.Counter(rel), nil
	}

	r.db.memberships[key] = &entity.Membership{
		UserID:    userID,
		ItemID:    ref.ID,
		Kind:      ref.Kind,
		Relation:  rel,
		CreatedAt: r.db.serverTime(),
	}
	item.SetCounter(rel, current+1)
	r.db.commit()
	return true, item.Counter(rel), nil
}

func (r *membershipRepository) Exists(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.memberships[membershipKey{userID: userID, rel: rel, itemID: ref.ID}]
	return ok, nil
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID string, rel entity.Relation, limit int) ([]*entity.Membership, error) {
	r.db.mu.Lock()
	var list []*entity.Membership
	for key, m := range r.db.memberships {
		if key.userID == userID && key.rel == rel {
			c := *m
			list = append(list, &c)
		}
	}
	r.db.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *membershipRepository) Watch(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation, fn func(bool, error)) repository.Subscription {
	return r.db.watch(ctx, func() {
		active, err := r.Exists(ctx, userID, ref, rel)
		fn(active, err)
	})
}
