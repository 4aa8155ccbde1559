package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product in a user's cart. At most one line exists per
// (user, product); adding the product again increments Quantity.
type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	ProductID string    `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
	CreatedAt time.Time `json:"created_at"`
}

// WishlistEntry records that a user liked a product.
type WishlistEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	ProductID string    `json:"product_id" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem is a cart line joined with its product for display.
type CartItem struct {
	CartLine
	Product *Product `json:"product,omitempty"`
}

// Subtotal is price × quantity, or zero when the product is gone.
func (i CartItem) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotal sums the subtotals of items.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// WishlistItem is a wishlist entry joined with its product.
type WishlistItem struct {
	WishlistEntry
	Product *Product `json:"product,omitempty"`
}
