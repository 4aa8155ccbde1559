package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/page"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// QueryLinkResponse carries the chat deep link for a product.
type QueryLinkResponse struct {
	URL string `json:"url"`
}

// Shop handles GET /api/v1/shop?category=
func (h *Handler) Shop(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewShopPage(h.deps, sess)
	defer p.Close()

	err := p.Mount(r.Context())
	if category := r.URL.Query().Get("category"); category != "" && err == nil {
		p.SelectCategory(category)
	}
	h.respond(w, r, http.StatusOK, p.State(), page.Result{}, err)
}

// NewArrivals handles GET /api/v1/shop/new-arrivals
func (h *Handler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewArrivalsPage(h.deps, sess)
	defer p.Close()

	err := p.Mount(r.Context())
	h.respond(w, r, http.StatusOK, p.State(), page.Result{}, err)
}

// BestSellers handles GET /api/v1/shop/best-sellers
func (h *Handler) BestSellers(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewHomePage(h.deps, sess)
	defer p.Close()

	err := p.Mount(r.Context())
	h.respond(w, r, http.StatusOK, p.State(), page.Result{}, err)
}

// Product handles GET /api/v1/shop/{productId}
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	sess := h.session(r)
	defer sess.Close()

	p := page.NewProductPage(h.deps, sess, productID)
	defer p.Close()

	if err := p.Mount(r.Context()); err != nil {
		h.respond(w, r, 0, nil, page.Result{}, err)
		return
	}
	state := p.State()
	if state.NotFound {
		h.respond(w, r, 0, nil, page.Result{}, apperrors.NotFound("product", productID))
		return
	}
	h.respond(w, r, http.StatusOK, state, page.Result{}, nil)
}

// QueryLink handles GET /api/v1/shop/{productId}/query-link
func (h *Handler) QueryLink(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	sess := h.session(r)
	defer sess.Close()

	p := page.NewProductPage(h.deps, sess, productID)
	defer p.Close()

	if err := p.Mount(r.Context()); err != nil {
		h.respond(w, r, 0, nil, page.Result{}, err)
		return
	}
	state := p.State()
	if state.NotFound {
		h.respond(w, r, 0, nil, page.Result{}, apperrors.NotFound("product", productID))
		return
	}
	h.respond(w, r, http.StatusOK, QueryLinkResponse{URL: state.QueryLink}, page.Result{}, nil)
}
