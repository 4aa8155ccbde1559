package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/lock"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Lock kinds.
const (
	lockCart     = "cart"
	lockWishlist = "wishlist"
)

// CartSummary is the cart page's data.
type CartSummary struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

// LineItemService reconciles cart lines and wishlist entries against the
// store, keeping at most one of each per (user, product).
type LineItemService struct {
	cart     repository.CartRepository
	wishlist repository.WishlistRepository
	products repository.ProductRepository
	locker   lock.Locker
	events   event.Publisher
	logger   *slog.Logger
}

// NewLineItemService creates a line-item service.
func NewLineItemService(
	cart repository.CartRepository,
	wishlist repository.WishlistRepository,
	products repository.ProductRepository,
	locker lock.Locker,
	events event.Publisher,
	logger *slog.Logger,
) *LineItemService {
	return &LineItemService{
		cart:     cart,
		wishlist: wishlist,
		products: products,
		locker:   locker,
		events:   events,
		logger:   logger,
	}
}

// AddOrIncrementCart adds productID to the user's cart, or increments the
// existing line's quantity by one.
func (s *LineItemService) AddOrIncrementCart(ctx context.Context, id domain.Identity, productID string) (*domain.CartLine, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	unlock, err := s.locker.Lock(ctx, lock.Key(lockCart, id.UserID, productID))
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	defer unlock()

	action := event.CartActionIncremented
	existing, err := s.cart.FindByProduct(ctx, id.UserID, productID)
	var line *domain.CartLine
	switch {
	case err == nil:
		line, err = s.cart.SetQuantity(ctx, id.UserID, existing.ID, existing.Quantity+1)
	case errors.Is(err, apperrors.ErrNotFound):
		action = event.CartActionAdded
		line, err = s.cart.Insert(ctx, &domain.CartLine{UserID: id.UserID, ProductID: productID, Quantity: 1})
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to add to cart",
			slog.String("user_id", id.UserID),
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil, storeError("add to cart", err)
	}

	s.publishCart(ctx, line, action)

	s.logger.InfoContext(ctx, "cart line saved",
		slog.String("user_id", id.UserID),
		slog.String("product_id", productID),
		slog.Int("quantity", line.Quantity),
	)
	return line, nil
}

// ToggleWishlist removes productID from the wishlist when currentlyLiked,
// otherwise adds it. It returns the new liked state. currentlyLiked is
// trusted for the removal. An add always re-checks for an existing entry,
// whatever the lock mode, so a stale flag cannot create a second entry.
func (s *LineItemService) ToggleWishlist(ctx context.Context, id domain.Identity, productID string, currentlyLiked bool) (bool, error) {
	if err := requireIdentity(id); err != nil {
		return false, err
	}
	if productID == "" {
		return false, apperrors.InvalidInput("product id is required")
	}

	unlock, err := s.locker.Lock(ctx, lock.Key(lockWishlist, id.UserID, productID))
	if err != nil {
		return false, fmt.Errorf("update wishlist: %w", err)
	}
	defer unlock()

	if currentlyLiked {
		if _, err := s.wishlist.DeleteByProduct(ctx, id.UserID, productID); err != nil {
			s.logWishlistError(ctx, id, productID, err)
			return true, storeError("update wishlist", err)
		}
		s.publishWishlist(ctx, id.UserID, productID, event.WishlistActionRemoved)
		return false, nil
	}

	exists, err := s.wishlist.Exists(ctx, id.UserID, productID)
	if err != nil {
		s.logWishlistError(ctx, id, productID, err)
		return false, storeError("update wishlist", err)
	}
	if !exists {
		if _, err := s.wishlist.Insert(ctx, &domain.WishlistEntry{UserID: id.UserID, ProductID: productID}); err != nil {
			s.logWishlistError(ctx, id, productID, err)
			return false, storeError("update wishlist", err)
		}
		s.publishWishlist(ctx, id.UserID, productID, event.WishlistActionAdded)
	}
	return true, nil
}

// SetQuantity sets a line's quantity. A quantity of zero or less removes the
// line and returns a nil line.
func (s *LineItemService) SetQuantity(ctx context.Context, id domain.Identity, lineID string, quantity int) (*domain.CartLine, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, s.RemoveLine(ctx, id, lineID)
	}

	line, err := s.cart.SetQuantity(ctx, id.UserID, lineID, quantity)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update quantity",
			slog.String("line_id", lineID),
			slog.String("error", err.Error()),
		)
		return nil, storeError("update quantity", err)
	}

	s.publishCart(ctx, line, event.CartActionQuantitySet)
	return line, nil
}

// RemoveLine deletes a cart line.
func (s *LineItemService) RemoveLine(ctx context.Context, id domain.Identity, lineID string) error {
	if err := requireIdentity(id); err != nil {
		return err
	}

	if err := s.cart.Delete(ctx, id.UserID, lineID); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove cart line",
			slog.String("line_id", lineID),
			slog.String("error", err.Error()),
		)
		return storeError("remove from cart", err)
	}

	s.publishCart(ctx, &domain.CartLine{ID: lineID, UserID: id.UserID}, event.CartActionRemoved)
	return nil
}

// RemoveWishlistEntry deletes a wishlist entry by id.
func (s *LineItemService) RemoveWishlistEntry(ctx context.Context, id domain.Identity, entryID string) error {
	if err := requireIdentity(id); err != nil {
		return err
	}

	entry, err := s.wishlist.GetByID(ctx, id.UserID, entryID)
	if err != nil {
		return storeError("remove from wishlist", err)
	}
	if err := s.wishlist.Delete(ctx, id.UserID, entryID); err != nil {
		s.logWishlistError(ctx, id, entry.ProductID, err)
		return storeError("remove from wishlist", err)
	}

	s.publishWishlist(ctx, id.UserID, entry.ProductID, event.WishlistActionRemoved)
	return nil
}

// MoveWishlistToCart adds the entry's product to the cart. The entry stays
// on the wishlist.
func (s *LineItemService) MoveWishlistToCart(ctx context.Context, id domain.Identity, entryID string) (*domain.CartLine, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	entry, err := s.wishlist.GetByID(ctx, id.UserID, entryID)
	if err != nil {
		return nil, storeError("add to cart", err)
	}

	line, err := s.AddOrIncrementCart(ctx, id, entry.ProductID)
	if err != nil {
		return nil, err
	}

	s.publishWishlist(ctx, id.UserID, entry.ProductID, event.WishlistActionMovedToCart)
	return line, nil
}

// Cart returns the user's lines joined with their products and the total.
// Lines whose product no longer exists are kept with a nil product.
func (s *LineItemService) Cart(ctx context.Context, id domain.Identity) (*CartSummary, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	lines, err := s.cart.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, storeError("load cart", err)
	}

	productIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
	}
	byID, err := s.productsByID(ctx, productIDs)
	if err != nil {
		return nil, storeError("load cart", err)
	}

	items := make([]domain.CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.CartItem{CartLine: l, Product: byID[l.ProductID]})
	}
	return &CartSummary{Items: items, Total: domain.CartTotal(items)}, nil
}

// Wishlist returns the user's entries joined with their products.
func (s *LineItemService) Wishlist(ctx context.Context, id domain.Identity) ([]domain.WishlistItem, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	entries, err := s.wishlist.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, storeError("load wishlist", err)
	}

	productIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		productIDs = append(productIDs, e.ProductID)
	}
	byID, err := s.productsByID(ctx, productIDs)
	if err != nil {
		return nil, storeError("load wishlist", err)
	}

	items := make([]domain.WishlistItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, domain.WishlistItem{WishlistEntry: e, Product: byID[e.ProductID]})
	}
	return items, nil
}

func (s *LineItemService) productsByID(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ProductID] = &products[i]
	}
	return byID, nil
}

func (s *LineItemService) publishCart(ctx context.Context, line *domain.CartLine, action string) {
	err := s.events.PublishCartUpdated(ctx, event.CartUpdatedData{
		UserID:    line.UserID,
		LineID:    line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Action:    action,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", line.UserID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *LineItemService) publishWishlist(ctx context.Context, userID, productID, action string) {
	err := s.events.PublishWishlistUpdated(ctx, event.WishlistUpdatedData{
		UserID:    userID,
		ProductID: productID,
		Action:    action,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *LineItemService) logWishlistError(ctx context.Context, id domain.Identity, productID string, err error) {
	s.logger.ErrorContext(ctx, "failed to update wishlist",
		slog.String("user_id", id.UserID),
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
}
