package repository

import (
	"context"
	"time"

	"marketsync/internal/domain/entity"
)

type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, ref entity.ItemRef) (*entity.Item, error)
	List(ctx context.Context, filter entity.MarketFilter) ([]*entity.Item, error)

	// RecordClick applies entity.ApplyClick to the item inside one transaction.
	// recorded is false when the click was an owner self-click.
	RecordClick(ctx context.Context, ref entity.ItemRef, actingUserID string, now time.Time) (recorded bool, err error)

	// IncrementImpressions bumps impressionCount by one on every referenced item.
	IncrementImpressions(ctx context.Context, refs []entity.ItemRef) error

	// StartBoost opens a boost window, snapshotting the impression and click
	// counters as its baseline. Only the owner may boost, and an item with a
	// live window is a CONFLICT; both checks run atomically with the write.
	StartBoost(ctx context.Context, ref entity.ItemRef, ownerID string, start, end time.Time) (*entity.Item, error)

	ListExpiredBoosts(ctx context.Context, kind entity.ItemKind, now time.Time, limit int) ([]*entity.Item, error)

	// EndBoost clears isBoosted if the window has ended at now. ended is false if
	// another writer already ended or extended it.
	EndBoost(ctx context.Context, ref entity.ItemRef, now time.Time) (ended bool, err error)
}
