package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if _, ok := r.db.items[item.Ref()]; ok {
		return errors.Conflict("Item already exists")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.db.serverTime()
	}
	r.db.items[item.Ref()] = cloneItem(item)
	r.db.commit()
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, ref entity.ItemRef) (*entity.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.items[ref]
	if !ok {
		return nil, errors.NotFound("Item", nil)
	}
	return cloneItem(item), nil
}

func (r *itemRepository) List(ctx context.Context, filter entity.MarketFilter) ([]*entity.Item, error) {
	r.db.mu.Lock()
	var items []*entity.Item
	for _, item := range r.db.items {
		if filter.Matches(item) {
			items = append(items, cloneItem(item))
		}
	}
	r.db.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch filter.Sort() {
		case entity.SortPriceAsc:
			return a.Price < b.Price
		case entity.SortPriceDesc:
			return a.Price > b.Price
		case entity.SortPopular:
			return a.ClickCount > b.ClickCount
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	if len(items) > filter.Limit() {
		items = items[:filter.Limit()]
	}
	return items, nil
}

func (r *itemRepository) RecordClick(ctx context.Context, ref entity.ItemRef, actingUserID string, now time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.items[ref]
	if !ok {
		return false, errors.NotFound("Item", nil)
	}

	update, applied := entity.ApplyClick(item, actingUserID, now)
	if !applied {
		return false, nil
	}
	item.ClickCount = update.ClickCount
	item.DailyClickCount = update.DailyClickCount
	// Stored as a commit timestamp, like the Firestore adapter's ServerTimestamp.
	last := r.db.serverTime()
	item.LastClickDate = &last
	r.db.commit()
	return true, nil
}

func (r *itemRepository) IncrementImpressions(ctx context.Context, refs []entity.ItemRef) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, ref := range refs {
		if _, ok := r.db.items[ref]; !ok {
			return errors.NotFound("Item", nil)
		}
	}
	for _, ref := range refs {
		r.db.items[ref].ImpressionCount++
	}
	if len(refs) > 0 {
		r.db.commit()
	}
	return nil
}

func (r *itemRepository) StartBoost(ctx context.Context, ref entity.ItemRef, ownerID string, start, end time.Time) (*entity.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.items[ref]
	if !ok {
		return nil, errors.NotFound("Item", nil)
	}
	if item.OwnerID != ownerID {
		return nil, errors.Forbidden("Only the owner can boost this item", nil)
	}
	if item.IsBoosted && !item.BoostExpired(start) {
		return nil, errors.Conflict("Item is already boosted")
	}

	item.IsBoosted = true
	item.BoostStartTime = &start
	item.BoostEndTime = &end
	item.BoostImpressionCountAtStart = item.ImpressionCount
	item.BoostClickCountAtStart = item.ClickCount
	r.db.commit()
	return cloneItem(item), nil
}

func (r *itemRepository) ListExpiredBoosts(ctx context.Context, kind entity.ItemKind, now time.Time, limit int) ([]*entity.Item, error) {
	r.db.mu.Lock()
	var expired []*entity.Item
	for ref, item := range r.db.items {
		if ref.Kind == kind && item.BoostExpired(now) {
			expired = append(expired, cloneItem(item))
		}
	}
	r.db.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].BoostEndTime.Before(*expired[j].BoostEndTime)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (r *itemRepository) EndBoost(ctx context.Context, ref entity.ItemRef, now time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.items[ref]
	if !ok {
		return false, errors.NotFound("Item", nil)
	}
	if !item.BoostExpired(now) {
		return false, nil
	}
	item.IsBoosted = false
	r.db.commit()
	return true, nil
}
