package usecase

import (
	"context"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

const maxImpressionBatch = 100

type ItemUseCase struct {
	items repository.ItemRepository
	now   Clock
}

func NewItemUseCase(items repository.ItemRepository, now Clock) *ItemUseCase {
	if now == nil {
		now = systemClock
	}
	return &ItemUseCase{items: items, now: now}
}

// Create stores a new listing owned by ownerID. Counters and boost state
// always start at zero whatever the caller sent.
func (u *ItemUseCase) Create(ctx context.Context, ownerID string, input *entity.Item) (*entity.Item, error) {
	item := &entity.Item{
		Kind:    input.Kind,
		OwnerID: ownerID,
		Title:   input.Title,
		Price:   input.Price,
		Details: input.Details,
	}
	if _, err := entity.ParseItemKind(string(item.Kind)); err != nil {
		return nil, errors.BadRequest(err.Error(), err)
	}
	if err := item.Validate(); err != nil {
		return nil, errors.BadRequest(err.Error(), err)
	}
	if item.Price < 0 {
		return nil, errors.BadRequest("price must not be negative", nil)
	}

	item.CreatedAt = u.now()
	if err := u.items.Create(ctx, item); err != nil {
		return nil, err
	}

	logger.Info("item created", "item", item.Ref().String(), "owner", ownerID)
	return item, nil
}

func (u *ItemUseCase) Get(ctx context.Context, ref entity.ItemRef) (*entity.Item, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	return u.items.GetByID(ctx, ref)
}

func (u *ItemUseCase) List(ctx context.Context, filter entity.MarketFilter) ([]*entity.Item, error) {
	return u.items.List(ctx, filter)
}

// RecordClick counts a view of the item by actingUserID. Owner self-clicks are
// dropped without error.
func (u *ItemUseCase) RecordClick(ctx context.Context, ref entity.ItemRef, actingUserID string) error {
	if err := validateRef(ref); err != nil {
		return err
	}

	recorded, err := u.items.RecordClick(ctx, ref, actingUserID, u.now())
	if err != nil {
		return err
	}
	if !recorded {
		logger.Debug("owner click ignored", "item", ref.String(), "user", actingUserID)
	}
	return nil
}

// RecordImpressions counts one impression for each listed item.
func (u *ItemUseCase) RecordImpressions(ctx context.Context, refs []entity.ItemRef) error {
	if len(refs) > maxImpressionBatch {
		return errors.BadRequest("too many items in one impression batch", nil)
	}
	for _, ref := range refs {
		if err := validateRef(ref); err != nil {
			return err
		}
	}
	return u.items.IncrementImpressions(ctx, refs)
}
