package repository

import (
	"context"

	"marketsync/internal/domain/entity"
)

type MembershipRepository interface {
	// Toggle flips membership of (user, item, relation) and adjusts the item's
	// aggregate counter, never letting it drop below zero. It returns the new
	// membership state and the counter value written.
	Toggle(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation) (active bool, count int64, err error)

	Exists(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation) (bool, error)

	ListByUser(ctx context.Context, userID string, rel entity.Relation, limit int) ([]*entity.Membership, error)

	// Watch delivers the membership state of one item for a status widget.
	Watch(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation, fn func(active bool, err error)) Subscription
}
