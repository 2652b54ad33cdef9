package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketsync/internal/adapter/repository/memory"
	"marketsync/internal/domain/entity"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type denyAll struct{}

func (denyAll) Allow(string, string) (bool, time.Duration) { return false, 3 * time.Second }

func createItem(t *testing.T, db *memory.DB, kind entity.ItemKind, owner string) *entity.Item {
	t.Helper()
	details := map[entity.ItemKind]entity.ItemDetails{
		entity.KindProduct:  entity.ProductDetails{Brand: "acme", Stock: 1},
		entity.KindProperty: entity.PropertyDetails{City: "Porto", Rooms: 3},
		entity.KindCar:      entity.CarDetails{Make: "Volvo", Year: 2020},
	}[kind]

	item, err := NewItemUseCase(memory.NewItemRepository(db), nil).Create(context.Background(), owner, &entity.Item{
		Kind:    kind,
		Title:   "listing",
		Price:   100,
		Details: details,
	})
	require.NoError(t, err)
	return item
}
