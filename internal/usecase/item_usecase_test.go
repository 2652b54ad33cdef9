package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsync/internal/adapter/repository/memory"
	"marketsync/internal/domain/entity"
	"marketsync/pkg/errors"
)

func TestCreateItemIgnoresClientCounters(t *testing.T) {
	clock := newTestClock()
	uc := NewItemUseCase(memory.NewItemRepository(memory.NewDB()), clock.Now)

	item, err := uc.Create(context.Background(), "seller", &entity.Item{
		Kind:           entity.KindProperty,
		OwnerID:        "someone-else",
		Title:          "flat",
		FavoritesCount: 999,
		IsBoosted:      true,
		Details:        entity.PropertyDetails{City: "Oslo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "seller", item.OwnerID)
	assert.Zero(t, item.FavoritesCount)
	assert.False(t, item.IsBoosted)
	assert.Equal(t, clock.Now(), item.CreatedAt)
}

func TestCreateItemRejectsMismatchedDetails(t *testing.T) {
	uc := NewItemUseCase(memory.NewItemRepository(memory.NewDB()), nil)
	_, err := uc.Create(context.Background(), "seller", &entity.Item{Kind: entity.KindCar, Details: entity.ProductDetails{}})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestRecordClickAcrossDays(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	db := memory.NewDB(memory.WithClock(clock.Now))
	item := createItem(t, db, entity.KindProduct, "seller")
	uc := NewItemUseCase(memory.NewItemRepository(db), clock.Now)

	require.NoError(t, uc.RecordClick(ctx, item.Ref(), "a"))
	require.NoError(t, uc.RecordClick(ctx, item.Ref(), "b"))
	require.NoError(t, uc.RecordClick(ctx, item.Ref(), "seller"))

	got, err := uc.Get(ctx, item.Ref())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClickCount)
	assert.Equal(t, int64(2), got.DailyClickCount)

	clock.Advance(24 * time.Hour)
	require.NoError(t, uc.RecordClick(ctx, item.Ref(), "a"))

	got, err = uc.Get(ctx, item.Ref())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ClickCount)
	assert.Equal(t, int64(1), got.DailyClickCount)
	assert.Equal(t, clock.Now(), *got.LastClickDate)
}

func TestRecordClickMissingItem(t *testing.T) {
	uc := NewItemUseCase(memory.NewItemRepository(memory.NewDB()), nil)
	err := uc.RecordClick(context.Background(), entity.ItemRef{Kind: entity.KindCar, ID: "ghost"}, "a")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestRecordImpressions(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	a := createItem(t, db, entity.KindProduct, "seller")
	b := createItem(t, db, entity.KindCar, "seller")
	uc := NewItemUseCase(memory.NewItemRepository(db), nil)

	require.NoError(t, uc.RecordImpressions(ctx, []entity.ItemRef{a.Ref(), b.Ref()}))

	got, err := uc.Get(ctx, b.Ref())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ImpressionCount)

	err = uc.RecordImpressions(ctx, []entity.ItemRef{{Kind: "boat", ID: "x"}})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	tooMany := make([]entity.ItemRef, maxImpressionBatch+1)
	assert.True(t, errors.Is(uc.RecordImpressions(ctx, tooMany), "BAD_REQUEST"))
}

func TestListItemsUsesFilter(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	createItem(t, db, entity.KindProduct, "seller")
	createItem(t, db, entity.KindCar, "seller")
	uc := NewItemUseCase(memory.NewItemRepository(db), nil)

	filter, err := entity.NewMarketFilter(entity.KindCar)
	require.NoError(t, err)
	items, err := uc.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entity.KindCar, items[0].Kind)
}
