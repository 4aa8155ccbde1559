package remote

import (
	"context"
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ProductRepository implements repository.ProductRepository.
type ProductRepository struct {
	client store.Client
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a product repository on client.
func NewProductRepository(client store.Client) *ProductRepository {
	return &ProductRepository{client: client}
}

// List implements repository.ProductRepository.
func (r *ProductRepository) List(ctx context.Context, q repository.ProductQuery) ([]domain.Product, error) {
	var query store.Query
	if q.Category != "" && q.Category != domain.CategoryAll {
		query.Filters = append(query.Filters, store.Eq("category", q.Category))
	}
	if q.NewestFirst {
		query = query.OrderBy("created_at", true)
	}
	query = query.WithLimit(q.Limit)

	recs, err := r.client.Select(ctx, store.Products, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return decodeAll[domain.Product](recs)
}

// GetByID implements repository.ProductRepository.
func (r *ProductRepository) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	recs, err := r.client.Select(ctx, store.Products, store.Where(store.Eq("product_id", productID)).WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	if len(recs) == 0 {
		return nil, apperrors.NotFound("product", productID)
	}
	return decode[domain.Product](recs[0])
}

// ListByIDs implements repository.ProductRepository.
func (r *ProductRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	recs, err := r.client.Select(ctx, store.Products, store.Where(store.In("product_id", ids)))
	if err != nil {
		return nil, fmt.Errorf("list products by id: %w", err)
	}
	return decodeAll[domain.Product](recs)
}

// Related implements repository.ProductRepository. Same-category products
// come first; products carrying all of p's tags fill the remaining slots.
func (r *ProductRepository) Related(ctx context.Context, p *domain.Product, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		return []domain.Product{}, nil
	}

	recs, err := r.client.Select(ctx, store.Products, store.Where(
		store.Eq("category", p.Category),
		store.Neq("product_id", p.ProductID),
	).WithLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("related products by category: %w", err)
	}
	related, err := decodeAll[domain.Product](recs)
	if err != nil {
		return nil, err
	}

	if len(related) >= limit || len(p.Tags) == 0 {
		return related, nil
	}

	recs, err = r.client.Select(ctx, store.Products, store.Where(
		store.Contains("tags", p.Tags),
		store.Neq("product_id", p.ProductID),
	).WithLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("related products by tags: %w", err)
	}
	byTags, err := decodeAll[domain.Product](recs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(related))
	for _, rp := range related {
		seen[rp.ProductID] = struct{}{}
	}
	for _, tp := range byTags {
		if len(related) == limit {
			break
		}
		if _, dup := seen[tp.ProductID]; dup {
			continue
		}
		seen[tp.ProductID] = struct{}{}
		related = append(related, tp)
	}
	return related, nil
}
