package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newTestCatalogService() (*CatalogService, *mockProductRepository, *mockWishlistRepository) {
	products := new(mockProductRepository)
	wishlist := new(mockWishlistRepository)
	return NewCatalogService(products, wishlist, newTestLogger()), products, wishlist
}

var catalog = []domain.Product{
	{ProductID: "a", Category: domain.CategorySale},
	{ProductID: "b", Category: domain.CategoryGift},
	{ProductID: "c", Category: domain.CategorySale},
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, domain.CategoryAll, NormalizeCategory(""))
	assert.Equal(t, domain.CategoryBestSellers, NormalizeCategory("Best Sellers"))
	assert.Equal(t, domain.CategoryNewArrivals, NormalizeCategory("new-arrivals"))
}

func TestShop_FiltersNewestFirstList(t *testing.T) {
	svc, products, _ := newTestCatalogService()
	ctx := context.Background()
	products.On("List", ctx, repository.ProductQuery{NewestFirst: true}).Return(catalog, nil)

	sale, err := svc.Shop(ctx, "Sale")
	require.NoError(t, err)
	require.Len(t, sale, 2)
	assert.Equal(t, "a", sale[0].ProductID)
	assert.Equal(t, "c", sale[1].ProductID)

	all, err := svc.Shop(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, catalog, all)
}

func TestShop_StoreFailure(t *testing.T) {
	svc, products, _ := newTestCatalogService()
	products.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := svc.Shop(context.Background(), "all")
	assert.ErrorIs(t, err, apperrors.ErrRemoteStore)
}

func TestProduct_WithRelatedAndLiked(t *testing.T) {
	svc, products, wishlist := newTestCatalogService()
	ctx := context.Background()
	p := &domain.Product{ProductID: "a", Category: domain.CategorySale}

	products.On("GetByID", ctx, "a").Return(p, nil)
	products.On("Related", ctx, p, RelatedLimit).Return([]domain.Product{catalog[2]}, nil)
	wishlist.On("Exists", ctx, "user-1", "a").Return(true, nil)

	detail, err := svc.Product(ctx, shopper, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", detail.Product.ProductID)
	assert.Len(t, detail.Related, 1)
	assert.True(t, detail.Liked)
}

func TestProduct_AnonymousSkipsWishlist(t *testing.T) {
	svc, products, wishlist := newTestCatalogService()
	ctx := context.Background()
	p := &domain.Product{ProductID: "a"}

	products.On("GetByID", ctx, "a").Return(p, nil)
	products.On("Related", ctx, p, RelatedLimit).Return([]domain.Product{}, nil)

	detail, err := svc.Product(ctx, domain.Identity{}, "a")
	require.NoError(t, err)
	assert.False(t, detail.Liked)
	wishlist.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
}

func TestProduct_NotFound(t *testing.T) {
	svc, products, _ := newTestCatalogService()
	products.On("GetByID", mock.Anything, "nope").Return(nil, apperrors.NotFound("product", "nope"))

	_, err := svc.Product(context.Background(), shopper, "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHomeSections(t *testing.T) {
	svc, products, _ := newTestCatalogService()
	ctx := context.Background()

	products.On("List", ctx, repository.ProductQuery{Category: domain.CategoryNewArrivals, NewestFirst: true}).
		Return([]domain.Product{{ProductID: "n"}}, nil)
	products.On("List", ctx, repository.ProductQuery{Category: domain.CategoryBestSellers, Limit: BestSellersLimit}).
		Return([]domain.Product{{ProductID: "b"}}, nil)

	fresh, err := svc.NewArrivals(ctx)
	require.NoError(t, err)
	assert.Equal(t, "n", fresh[0].ProductID)

	best, err := svc.BestSellers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", best[0].ProductID)
	products.AssertExpectations(t)
}
