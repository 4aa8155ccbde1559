package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/slug"
)

// Catalog limits.
const (
	RelatedLimit     = 4
	BestSellersLimit = 4
)

// ProductDetail is the product page's data.
type ProductDetail struct {
	Product domain.Product   `json:"product"`
	Related []domain.Product `json:"related"`
	Liked   bool             `json:"liked"`
}

// CatalogService reads products for the shop, home and product pages.
type CatalogService struct {
	products repository.ProductRepository
	wishlist repository.WishlistRepository
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(products repository.ProductRepository, wishlist repository.WishlistRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{products: products, wishlist: wishlist, logger: logger}
}

// NormalizeCategory maps a shopper-facing label or token onto a category
// token. An empty label means all products.
func NormalizeCategory(label string) string {
	token := slug.Generate(label)
	if token == "" {
		return domain.CategoryAll
	}
	return token
}

// Shop returns every product newest first, filtered by category.
func (s *CatalogService) Shop(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.products.List(ctx, repository.ProductQuery{NewestFirst: true})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load products", slog.String("error", err.Error()))
		return nil, storeError("load products", err)
	}
	return domain.FilterByCategory(products, NormalizeCategory(category)), nil
}

// Product returns a product with its related products. Liked reports
// whether id has the product wishlisted; it is false for anonymous callers
// and when the lookup fails.
func (s *CatalogService) Product(ctx context.Context, id domain.Identity, productID string) (*ProductDetail, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to load product",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
		return nil, storeError("load product", err)
	}

	related, err := s.products.Related(ctx, p, RelatedLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load related products",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil, storeError("load product", err)
	}

	detail := &ProductDetail{Product: *p, Related: related}
	if id.UserID != "" {
		liked, err := s.wishlist.Exists(ctx, id.UserID, productID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to check wishlist",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
		detail.Liked = liked
	}
	return detail, nil
}

// NewArrivals returns the new-arrivals category, newest first.
func (s *CatalogService) NewArrivals(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx, repository.ProductQuery{
		Category:    domain.CategoryNewArrivals,
		NewestFirst: true,
	})
	if err != nil {
		return nil, storeError("load new arrivals", err)
	}
	return products, nil
}

// BestSellers returns up to BestSellersLimit best sellers.
func (s *CatalogService) BestSellers(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx, repository.ProductQuery{
		Category: domain.CategoryBestSellers,
		Limit:    BestSellersLimit,
	})
	if err != nil {
		return nil, storeError("load best sellers", err)
	}
	return products, nil
}
