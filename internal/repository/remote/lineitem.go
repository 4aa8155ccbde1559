package remote

import (
	"context"
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CartRepository implements repository.CartRepository.
type CartRepository struct {
	client store.Client
}

var _ repository.CartRepository = (*CartRepository)(nil)

// NewCartRepository creates a cart repository on client.
func NewCartRepository(client store.Client) *CartRepository {
	return &CartRepository{client: client}
}

// FindByProduct implements repository.CartRepository.
func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	recs, err := r.client.Select(ctx, store.Cart, store.Where(
		store.Eq("user_id", userID),
		store.Eq("product_id", productID),
	))
	if err != nil {
		return nil, lookupError("find cart line", err)
	}
	if len(recs) == 0 {
		return nil, apperrors.NotFound("cart line", productID)
	}
	return decode[domain.CartLine](recs[0])
}

// ListByUser implements repository.CartRepository.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	recs, err := r.client.Select(ctx, store.Cart,
		store.Where(store.Eq("user_id", userID)).OrderBy("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return decodeAll[domain.CartLine](recs)
}

// Insert implements repository.CartRepository.
func (r *CartRepository) Insert(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error) {
	row := *line
	stamp(&row.ID, &row.CreatedAt)

	rec, err := encode(row)
	if err != nil {
		return nil, err
	}
	out, err := r.client.Insert(ctx, store.Cart, rec)
	if err != nil {
		return nil, fmt.Errorf("insert cart line: %w", err)
	}
	return decode[domain.CartLine](out)
}

// SetQuantity implements repository.CartRepository.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	recs, err := r.client.Update(ctx, store.Cart, store.Record{"quantity": quantity},
		store.Eq("id", lineID), store.Eq("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}
	if len(recs) == 0 {
		return nil, apperrors.NotFound("cart line", lineID)
	}
	return decode[domain.CartLine](recs[0])
}

// Delete implements repository.CartRepository.
func (r *CartRepository) Delete(ctx context.Context, userID, lineID string) error {
	n, err := r.client.Delete(ctx, store.Cart, store.Eq("id", lineID), store.Eq("user_id", userID))
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("cart line", lineID)
	}
	return nil
}

// WishlistRepository implements repository.WishlistRepository.
type WishlistRepository struct {
	client store.Client
}

var _ repository.WishlistRepository = (*WishlistRepository)(nil)

// NewWishlistRepository creates a wishlist repository on client.
func NewWishlistRepository(client store.Client) *WishlistRepository {
	return &WishlistRepository{client: client}
}

// Exists implements repository.WishlistRepository.
func (r *WishlistRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	recs, err := r.client.Select(ctx, store.Wishlist, store.Where(
		store.Eq("user_id", userID),
		store.Eq("product_id", productID),
	).WithLimit(1))
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	return len(recs) > 0, nil
}

// GetByID implements repository.WishlistRepository.
func (r *WishlistRepository) GetByID(ctx context.Context, userID, entryID string) (*domain.WishlistEntry, error) {
	recs, err := r.client.Select(ctx, store.Wishlist, store.Where(
		store.Eq("id", entryID),
		store.Eq("user_id", userID),
	))
	if err != nil {
		return nil, fmt.Errorf("get wishlist entry: %w", err)
	}
	if len(recs) == 0 {
		return nil, apperrors.NotFound("wishlist entry", entryID)
	}
	return decode[domain.WishlistEntry](recs[0])
}

// ListByUser implements repository.WishlistRepository.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	recs, err := r.client.Select(ctx, store.Wishlist,
		store.Where(store.Eq("user_id", userID)).OrderBy("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return decodeAll[domain.WishlistEntry](recs)
}

// Insert implements repository.WishlistRepository.
func (r *WishlistRepository) Insert(ctx context.Context, entry *domain.WishlistEntry) (*domain.WishlistEntry, error) {
	row := *entry
	stamp(&row.ID, &row.CreatedAt)

	rec, err := encode(row)
	if err != nil {
		return nil, err
	}
	out, err := r.client.Insert(ctx, store.Wishlist, rec)
	if err != nil {
		return nil, fmt.Errorf("insert wishlist entry: %w", err)
	}
	return decode[domain.WishlistEntry](out)
}

// DeleteByProduct implements repository.WishlistRepository.
func (r *WishlistRepository) DeleteByProduct(ctx context.Context, userID, productID string) (int, error) {
	n, err := r.client.Delete(ctx, store.Wishlist, store.Eq("user_id", userID), store.Eq("product_id", productID))
	if err != nil {
		return 0, fmt.Errorf("delete wishlist entries: %w", err)
	}
	return n, nil
}

// Delete implements repository.WishlistRepository.
func (r *WishlistRepository) Delete(ctx context.Context, userID, entryID string) error {
	n, err := r.client.Delete(ctx, store.Wishlist, store.Eq("id", entryID), store.Eq("user_id", userID))
	if err != nil {
		return fmt.Errorf("delete wishlist entry: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("wishlist entry", entryID)
	}
	return nil
}
