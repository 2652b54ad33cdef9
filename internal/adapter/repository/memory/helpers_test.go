package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketsync/internal/domain/entity"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return epoch }

func seedItem(t *testing.T, db *DB, id, owner string) entity.ItemRef {
	t.Helper()
	item := &entity.Item{
		ID:      id,
		Kind:    entity.KindProduct,
		OwnerID: owner,
		Title:   "item " + id,
		Details: entity.ProductDetails{Brand: "acme"},
	}
	require.NoError(t, NewItemRepository(db).Create(context.Background(), item))
	return item.Ref()
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}
