package page

import (
	"context"
	"errors"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ListState is the state of a product listing.
type ListState struct {
	Loading    bool             `json:"loading"`
	Category   string           `json:"category"`
	Categories []string         `json:"categories,omitempty"`
	Products   []domain.Product `json:"products"`
	Liked      map[string]bool  `json:"liked,omitempty"`
}

// ListPage shows a grid of product cards: the shop, the new arrivals page
// and the home page's best sellers.
type ListPage struct {
	base
	load  func(ctx context.Context) ([]domain.Product, error)
	all   []domain.Product
	state ListState
}

func newListPage(deps Deps, session IdentitySource, load func(context.Context) ([]domain.Product, error)) *ListPage {
	p := &ListPage{load: load}
	p.init(deps, session)
	p.state = ListState{Loading: true, Category: domain.CategoryAll, Liked: map[string]bool{}}
	return p
}

// NewShopPage creates the shop page with its category filter.
func NewShopPage(deps Deps, session IdentitySource) *ListPage {
	p := newListPage(deps, session, func(ctx context.Context) ([]domain.Product, error) {
		return deps.Catalog.Shop(ctx, domain.CategoryAll)
	})
	p.state.Categories = domain.Categories
	return p
}

// NewArrivalsPage creates the new arrivals page.
func NewArrivalsPage(deps Deps, session IdentitySource) *ListPage {
	return newListPage(deps, session, deps.Catalog.NewArrivals)
}

// NewHomePage creates the home page's best sellers section.
func NewHomePage(deps Deps, session IdentitySource) *ListPage {
	return newListPage(deps, session, deps.Catalog.BestSellers)
}

// Mount fetches the products.
func (p *ListPage) Mount(ctx context.Context) error {
	ctx, done := p.join(ctx)
	defer done()

	products, err := p.load(ctx)
	if applyErr := p.apply(func() {
		p.state.Loading = false
		if err == nil {
			p.all = products
			p.state.Products = domain.FilterByCategory(products, p.state.Category)
		}
	}); applyErr != nil {
		return applyErr
	}
	return err
}

// SelectCategory filters the fetched products by a category label. It
// never calls the store.
func (p *ListPage) SelectCategory(label string) {
	token := service.NormalizeCategory(label)
	_ = p.apply(func() {
		p.state.Category = token
		p.state.Products = domain.FilterByCategory(p.all, token)
	})
}

// AddToCart adds a card's product to the cart.
func (p *ListPage) AddToCart(ctx context.Context, productID string) (Result, error) {
	return p.addToCart(ctx, productID)
}

// ToggleLike likes or unlikes a card's product.
func (p *ListPage) ToggleLike(ctx context.Context, productID string) (Result, error) {
	p.mu.Lock()
	liked := p.state.Liked[productID]
	p.mu.Unlock()

	now, res, err := p.toggleLike(ctx, productID, liked)
	if err == nil {
		_ = p.apply(func() { p.state.Liked[productID] = now })
	}
	return res, err
}

// QueryLink returns the chat link for a listed product.
func (p *ListPage) QueryLink(productID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, prod := range p.all {
		if prod.ProductID == productID {
			return p.queryLink(prod), true
		}
	}
	return "", false
}

// State returns a snapshot of the page.
func (p *ListPage) State() ListState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Products = append([]domain.Product(nil), p.state.Products...)
	s.Liked = make(map[string]bool, len(p.state.Liked))
	for k, v := range p.state.Liked {
		s.Liked[k] = v
	}
	return s
}

// ProductState is the state of the product page.
type ProductState struct {
	Loading   bool             `json:"loading"`
	NotFound  bool             `json:"not_found"`
	Product   *domain.Product  `json:"product,omitempty"`
	Related   []domain.Product `json:"related"`
	Liked     bool             `json:"liked"`
	QueryLink string           `json:"query_link,omitempty"`
}

// ProductPage shows one product with related products.
type ProductPage struct {
	base
	productID string
	state     ProductState
}

// NewProductPage creates the page for productID.
func NewProductPage(deps Deps, session IdentitySource, productID string) *ProductPage {
	p := &ProductPage{productID: productID, state: ProductState{Loading: true}}
	p.init(deps, session)
	return p
}

// Mount fetches the product. A missing product sets NotFound and is not an
// error.
func (p *ProductPage) Mount(ctx context.Context) error {
	ctx, done := p.join(ctx)
	defer done()

	id, _ := p.session.Current()
	detail, err := p.deps.Catalog.Product(ctx, id, p.productID)
	notFound := errors.Is(err, apperrors.ErrNotFound)

	if applyErr := p.apply(func() {
		p.state.Loading = false
		p.state.NotFound = notFound
		if err == nil {
			prod := detail.Product
			p.state.Product = &prod
			p.state.Related = detail.Related
			p.state.Liked = detail.Liked
			p.state.QueryLink = p.queryLink(prod)
		}
	}); applyErr != nil {
		return applyErr
	}
	if notFound {
		return nil
	}
	return err
}

// ToggleLike likes or unlikes the product.
func (p *ProductPage) ToggleLike(ctx context.Context) (Result, error) {
	p.mu.Lock()
	liked := p.state.Liked
	p.mu.Unlock()

	now, res, err := p.toggleLike(ctx, p.productID, liked)
	if err == nil {
		_ = p.apply(func() { p.state.Liked = now })
	}
	return res, err
}

// AddToCart adds the product to the cart.
func (p *ProductPage) AddToCart(ctx context.Context) (Result, error) {
	return p.addToCart(ctx, p.productID)
}

// State returns a snapshot of the page.
func (p *ProductPage) State() ProductState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Related = append([]domain.Product(nil), p.state.Related...)
	return s
}
