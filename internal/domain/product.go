package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category tokens carried by products. CategoryAll is reserved for filtering
// and never stored on a product.
const (
	CategoryAll         = "all"
	CategoryNewArrivals = "new-arrivals"
	CategoryBestSellers = "best-sellers"
	CategorySale        = "sale"
	CategoryGift        = "gift"
)

// Categories lists the filter tokens offered by the shop, in display order.
var Categories = []string{CategoryAll, CategoryNewArrivals, CategoryBestSellers, CategorySale, CategoryGift}

// Product is a read-only catalog item.
type Product struct {
	ProductID   string          `json:"product_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Tag         string          `json:"tag,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FilterByCategory returns the products whose category equals token, in
// their original order. The token "all" returns the input unchanged.
func FilterByCategory(products []Product, token string) []Product {
	if token == CategoryAll {
		return products
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == token {
			out = append(out, p)
		}
	}
	return out
}

// IsKnownCategory reports whether token is one of Categories.
func IsKnownCategory(token string) bool {
	for _, c := range Categories {
		if c == token {
			return true
		}
	}
	return false
}
