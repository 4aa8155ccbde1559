package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/lock"
	"github.com/utafrali/storefront/internal/repository/remote"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/store/memory"
)

// newStoreBackedService wires the line-item service to a seeded in-memory
// store.
func newStoreBackedService(t *testing.T, locker lock.Locker) (*LineItemService, *memory.Store) {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.Load(context.Background(), memory.DefaultSeed()))
	svc := NewLineItemService(
		remote.NewCartRepository(s),
		remote.NewWishlistRepository(s),
		remote.NewProductRepository(s),
		locker,
		event.Noop{},
		newTestLogger(),
	)
	return svc, s
}

func cartLinesFor(t *testing.T, s *memory.Store, userID, productID string) []store.Record {
	t.Helper()
	rows, err := s.Select(context.Background(), store.Cart, store.Where(
		store.Eq("user_id", userID),
		store.Eq("product_id", productID),
	))
	require.NoError(t, err)
	return rows
}

func TestReconcile_AddTwiceYieldsOneLineOfTwo(t *testing.T) {
	svc, s := newStoreBackedService(t, lock.Noop{})
	ctx := context.Background()

	first, err := svc.AddOrIncrementCart(ctx, shopper, "cotton-tee")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)
	require.Len(t, cartLinesFor(t, s, shopper.UserID, "cotton-tee"), 1)

	second, err := svc.AddOrIncrementCart(ctx, shopper, "cotton-tee")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, cartLinesFor(t, s, shopper.UserID, "cotton-tee"), 1)
}

func TestReconcile_SetQuantityRemovesOrSets(t *testing.T) {
	svc, s := newStoreBackedService(t, lock.Noop{})
	ctx := context.Background()

	line, err := svc.AddOrIncrementCart(ctx, shopper, "cotton-tee")
	require.NoError(t, err)

	updated, err := svc.SetQuantity(ctx, shopper, line.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	_, err = svc.SetQuantity(ctx, shopper, line.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cartLinesFor(t, s, shopper.UserID, "cotton-tee"))

	line, err = svc.AddOrIncrementCart(ctx, shopper, "cotton-tee")
	require.NoError(t, err)
	_, err = svc.SetQuantity(ctx, shopper, line.ID, -1)
	require.NoError(t, err)
	assert.Empty(t, cartLinesFor(t, s, shopper.UserID, "cotton-tee"))
}

func TestReconcile_LikeThenUnlikeLeavesNoEntry(t *testing.T) {
	svc, s := newStoreBackedService(t, lock.Noop{})
	ctx := context.Background()

	liked, err := svc.ToggleWishlist(ctx, shopper, "silk-scarf", false)
	require.NoError(t, err)
	require.True(t, liked)
	assert.Equal(t, 1, s.Len(store.Wishlist))

	liked, err = svc.ToggleWishlist(ctx, shopper, "silk-scarf", liked)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, s.Len(store.Wishlist))
}

func TestReconcile_StaleUnlikedFlagWithoutLocksKeepsOneEntry(t *testing.T) {
	svc, s := newStoreBackedService(t, lock.Noop{})
	ctx := context.Background()

	for range 2 {
		liked, err := svc.ToggleWishlist(ctx, shopper, "silk-scarf", false)
		require.NoError(t, err)
		assert.True(t, liked)
	}
	assert.Equal(t, 1, s.Len(store.Wishlist))
}

func TestReconcile_ConcurrentAddsWithLockKeepOneLine(t *testing.T) {
	svc, s := newStoreBackedService(t, lock.NewLocal())
	ctx := context.Background()

	const clicks = 10
	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddOrIncrementCart(ctx, shopper, "denim-jacket")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rows := cartLinesFor(t, s, shopper.UserID, "denim-jacket")
	require.Len(t, rows, 1)
	assert.EqualValues(t, clicks, rows[0]["quantity"])
}

func TestReconcile_UsersDoNotShareLines(t *testing.T) {
	svc, s := newStoreBackedService(t, lock.NewLocal())
	ctx := context.Background()
	other := shopper
	other.UserID = "user-2"

	_, err := svc.AddOrIncrementCart(ctx, shopper, "cotton-tee")
	require.NoError(t, err)
	_, err = svc.AddOrIncrementCart(ctx, other, "cotton-tee")
	require.NoError(t, err)

	assert.Len(t, cartLinesFor(t, s, shopper.UserID, "cotton-tee"), 1)
	assert.Len(t, cartLinesFor(t, s, other.UserID, "cotton-tee"), 1)
}
