package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/errors"
)

func TestToggleFlipsMembershipAndCounter(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithClock(fixedClock))
	ref := seedItem(t, db, "p1", "owner")
	repo := NewMembershipRepository(db)

	active, count, err := repo.Toggle(ctx, "u1", ref, entity.RelationFavorite)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, "u1", ref, entity.RelationFavorite)
	require.NoError(t, err)
	assert.True(t, exists)

	inCart, err := repo.Exists(ctx, "u1", ref, entity.RelationCart)
	require.NoError(t, err)
	assert.False(t, inCart)

	active, count, err = repo.Toggle(ctx, "u1", ref, entity.RelationFavorite)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, int64(0), count)
}

func TestToggleMissingItem(t *testing.T) {
	repo := NewMembershipRepository(NewDB())
	_, _, err := repo.Toggle(context.Background(), "u1", entity.ItemRef{Kind: entity.KindCar, ID: "nope"}, entity.RelationCart)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestToggleOffNeverDrivesCounterNegative(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	ref := seedItem(t, db, "p1", "owner")
	db.memberships[membershipKey{userID: "u1", rel: entity.RelationCart, itemID: ref.ID}] = &entity.Membership{ItemID: ref.ID, Kind: ref.Kind}

	active, count, err := NewMembershipRepository(db).Toggle(ctx, "u1", ref, entity.RelationCart)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, int64(0), count)
}

func TestToggleSequencesKeepCounterConsistent(t *testing.T) {
	property := func(ops []uint8) bool {
		ctx := context.Background()
		db := NewDB()
		item := &entity.Item{ID: "p", Kind: entity.KindProduct, OwnerID: "o", Details: entity.ProductDetails{}}
		if err := NewItemRepository(db).Create(ctx, item); err != nil {
			return false
		}
		repo := NewMembershipRepository(db)

		for _, op := range ops {
			user := fmt.Sprintf("u%d", op%5)
			rel := entity.RelationFavorite
			if op&0x80 != 0 {
				rel = entity.RelationCart
			}

			before, _ := repo.Exists(ctx, user, item.Ref(), rel)
			active, count, err := repo.Toggle(ctx, user, item.Ref(), rel)
			if err != nil || active == before || count < 0 {
				return false
			}

			var total int64
			for u := 0; u < 5; u++ {
				if ok, _ := repo.Exists(ctx, fmt.Sprintf("u%d", u), item.Ref(), rel); ok {
					total++
				}
			}
			if total != count {
				return false
			}
		}
		return true
	}
	assert.NoError(t, quick.Check(property, &quick.Config{MaxCount: 200}))
}

func TestDoubleToggleRestoresState(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	ref := seedItem(t, db, "p1", "owner")
	repo := NewMembershipRepository(db)

	_, _, err := repo.Toggle(ctx, "other", ref, entity.RelationFavorite)
	require.NoError(t, err)

	_, _, err = repo.Toggle(ctx, "u1", ref, entity.RelationFavorite)
	require.NoError(t, err)
	active, count, err := repo.Toggle(ctx, "u1", ref, entity.RelationFavorite)
	require.NoError(t, err)

	assert.False(t, active)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentTogglesLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	ref := seedItem(t, db, "p1", "owner")
	repo := NewMembershipRepository(db)

	const users = 50
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, _, err := repo.Toggle(ctx, fmt.Sprintf("u%d", i), ref, entity.RelationCart); err != nil {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()
	require.Zero(t, failures.Load())

	item, err := NewItemRepository(db).GetByID(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(users), item.CartCount)
	assert.Equal(t, int64(0), item.FavoritesCount)
}

func TestListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithClock(fixedClock))
	first := seedItem(t, db, "p1", "owner")
	second := seedItem(t, db, "p2", "owner")
	repo := NewMembershipRepository(db)

	_, _, err := repo.Toggle(ctx, "u1", first, entity.RelationFavorite)
	require.NoError(t, err)
	_, _, err = repo.Toggle(ctx, "u1", second, entity.RelationFavorite)
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "u1", entity.RelationFavorite, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ItemID)
	assert.Equal(t, entity.RelationFavorite, list[0].Relation)
}

func TestWatchMembershipStopsCleanly(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	ref := seedItem(t, db, "p1", "owner")
	repo := NewMembershipRepository(db)

	var state atomic.Bool
	var calls atomic.Int32
	sub := repo.Watch(ctx, "u1", ref, entity.RelationFavorite, func(active bool, err error) {
		assert.NoError(t, err)
		state.Store(active)
		calls.Add(1)
	})
	waitFor(t, func() bool { return calls.Load() >= 1 })
	assert.False(t, state.Load())
	assert.Equal(t, 1, db.ActiveWatchers())

	_, _, err := repo.Toggle(ctx, "u1", ref, entity.RelationFavorite)
	require.NoError(t, err)
	waitFor(t, state.Load)

	sub.Stop()
	sub.Stop()
	assert.Equal(t, 0, db.ActiveWatchers())
}
