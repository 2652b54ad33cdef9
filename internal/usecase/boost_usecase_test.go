package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsync/internal/adapter/repository/memory"
	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type boostFixture struct {
	db            *memory.DB
	clock         *testClock
	items         repository.ItemRepository
	notifications repository.NotificationRepository
	uc            *BoostUseCase
}

func newBoostFixture() *boostFixture {
	f := &boostFixture{db: memory.NewDB(), clock: newTestClock()}
	f.items = memory.NewItemRepository(f.db)
	f.notifications = memory.NewNotificationRepository(f.db)
	f.uc = NewBoostUseCase(f.items, f.notifications, f.clock.Now)
	return f
}

func (f *boostFixture) notificationsOf(t *testing.T, user string) []*entity.Notification {
	t.Helper()
	page, err := f.notifications.Page(context.Background(), user, nil, 50)
	require.NoError(t, err)
	return page
}

func TestBoostOnlyOwner(t *testing.T) {
	f := newBoostFixture()
	item := createItem(t, f.db, entity.KindProperty, "seller")

	_, err := f.uc.Start(context.Background(), "intruder", item.Ref(), time.Hour)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
	assert.Empty(t, f.notificationsOf(t, "seller"))
}

func TestConcurrentBoostStartsOpenOneWindow(t *testing.T) {
	f := newBoostFixture()
	item := createItem(t, f.db, entity.KindProperty, "seller")

	const starters = 8
	errs := make([]error, starters)
	var wg sync.WaitGroup
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Start(context.Background(), "seller", item.Ref(), time.Hour)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, "CONFLICT"):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, starters-1, conflicts)
	assert.Len(t, f.notificationsOf(t, "seller"), 1)
}

func TestBoostRejectsBadDuration(t *testing.T) {
	f := newBoostFixture()
	item := createItem(t, f.db, entity.KindProperty, "seller")

	for _, d := range []time.Duration{0, time.Second, MaxBoostDuration + time.Hour} {
		_, err := f.uc.Start(context.Background(), "seller", item.Ref(), d)
		assert.True(t, errors.Is(err, "BAD_REQUEST"), d.String())
	}
}

func TestBoostStatsTrackDeltas(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture()
	item := createItem(t, f.db, entity.KindProduct, "seller")
	ref := item.Ref()

	require.NoError(t, f.items.IncrementImpressions(ctx, []entity.ItemRef{ref, ref}))
	_, err := f.items.RecordClick(ctx, ref, "visitor", f.clock.Now())
	require.NoError(t, err)

	stats, err := f.uc.Start(ctx, "seller", ref, time.Hour)
	require.NoError(t, err)
	assert.True(t, stats.IsBoosted)
	assert.Zero(t, stats.ImpressionDelta)

	_, err = f.uc.Start(ctx, "seller", ref, time.Hour)
	assert.True(t, errors.Is(err, "CONFLICT"))

	require.NoError(t, f.items.IncrementImpressions(ctx, []entity.ItemRef{ref, ref, ref}))
	_, err = f.items.RecordClick(ctx, ref, "visitor", f.clock.Now())
	require.NoError(t, err)

	stats, err = f.uc.Stats(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ImpressionDelta)
	assert.Equal(t, int64(1), stats.ClickDelta)

	notes := f.notificationsOf(t, "seller")
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationBoosted, notes[0].Type)
	assert.Equal(t, item.ID, notes[0].ItemID)
}

func TestExpireDueEndsBoostAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newBoostFixture()
	item := createItem(t, f.db, entity.KindCar, "seller")
	other := createItem(t, f.db, entity.KindCar, "seller")

	_, err := f.uc.Start(ctx, "seller", item.Ref(), time.Hour)
	require.NoError(t, err)
	_, err = f.uc.Start(ctx, "seller", other.Ref(), 3*time.Hour)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	n, err := f.uc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.items.GetByID(ctx, item.Ref())
	require.NoError(t, err)
	assert.False(t, got.IsBoosted)

	require.NoError(t, f.items.IncrementImpressions(ctx, []entity.ItemRef{item.Ref()}))
	stats, err := f.uc.Stats(ctx, item.Ref())
	require.NoError(t, err)
	assert.False(t, stats.IsBoosted)
	assert.Zero(t, stats.ImpressionDelta)

	still, err := f.items.GetByID(ctx, other.Ref())
	require.NoError(t, err)
	assert.True(t, still.IsBoosted)

	n, err = f.uc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var expired int
	for _, note := range f.notificationsOf(t, "seller") {
		if note.Type == entity.NotificationBoostExpired {
			expired++
			assert.Equal(t, item.ID, note.ItemID)
		}
	}
	assert.Equal(t, 1, expired)
}

func TestBoostSweeperRunsUntilCancelled(t *testing.T) {
	f := newBoostFixture()
	item := createItem(t, f.db, entity.KindProduct, "seller")
	_, err := f.uc.Start(context.Background(), "seller", item.Ref(), time.Minute)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.uc.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		got, err := f.items.GetByID(context.Background(), item.Ref())
		return err == nil && !got.IsBoosted
	}, time.Second, 5*time.Millisecond)
}
