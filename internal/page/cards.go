package page

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/deeplink"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notice"
)

// Notice messages.
const (
	MsgAddedToCart         = "Added to cart successfully!"
	MsgAddToCartFailed     = "Error adding to cart"
	MsgAddedToWishlist     = "Added to wishlist"
	MsgRemovedFromWishlist = "Removed from wishlist"
	MsgWishlistFailed      = "Error updating wishlist"
	MsgUpdateCartFailed    = "Error updating cart"
	MsgRemoveCartFailed    = "Error removing from cart"
	MsgInboxFailed         = "Error updating notifications"
)

// addToCart is the add-to-cart action of a product card or product page.
func (b *base) addToCart(ctx context.Context, productID string) (Result, error) {
	id, redirect := b.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := b.join(ctx)
	defer done()

	if _, err := b.deps.LineItems.AddOrIncrementCart(ctx, id, productID); err != nil {
		b.logger.ErrorContext(ctx, "add to cart failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		res, _ := b.showIfOpen(notice.Error, MsgAddToCartFailed)
		return res, err
	}
	return b.showIfOpen(notice.Success, MsgAddedToCart)
}

// toggleLike flips liked for productID and returns the new state.
func (b *base) toggleLike(ctx context.Context, productID string, liked bool) (bool, Result, error) {
	id, redirect := b.identity()
	if redirect != nil {
		return liked, *redirect, nil
	}

	ctx, done := b.join(ctx)
	defer done()

	now, err := b.deps.LineItems.ToggleWishlist(ctx, id, productID, liked)
	if err != nil {
		b.logger.ErrorContext(ctx, "wishlist toggle failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		res, _ := b.showIfOpen(notice.Error, MsgWishlistFailed)
		return liked, res, err
	}

	msg := MsgAddedToWishlist
	if !now {
		msg = MsgRemovedFromWishlist
	}
	res, err := b.showIfOpen(notice.Success, msg)
	return now, res, err
}

func (b *base) queryLink(p domain.Product) string {
	return deeplink.QueryLink(b.deps.WhatsAppNumber, p)
}
