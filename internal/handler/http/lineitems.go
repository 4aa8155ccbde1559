package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/page"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// AddToCartRequest is the JSON request body for adding a product to the cart.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// SetQuantityRequest is the JSON request body for changing a line's
// quantity. Zero or less removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// ToggleResponse reports the wishlist state after a toggle.
type ToggleResponse struct {
	ProductID string `json:"product_id"`
	Liked     bool   `json:"liked"`
}

// Cart handles GET /api/v1/cart
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewCartPage(h.deps, sess)
	defer p.Close()

	res, err := p.Mount(r.Context())
	h.respond(w, r, http.StatusOK, p.State(), res, err)
}

// AddToCart handles POST /api/v1/cart/items
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := decode(w, r, &req); err != nil {
		h.respond(w, r, 0, nil, page.Result{}, err)
		return
	}

	sess := h.session(r)
	defer sess.Close()

	p := page.NewShopPage(h.deps, sess)
	defer p.Close()

	res, err := p.AddToCart(r.Context(), req.ProductID)
	h.respond(w, r, http.StatusOK, nil, res, err)
}

// SetQuantity handles PUT /api/v1/cart/items/{lineId}
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := decode(w, r, &req); err != nil {
		h.respond(w, r, 0, nil, page.Result{}, err)
		return
	}

	sess := h.session(r)
	defer sess.Close()

	p := page.NewCartPage(h.deps, sess)
	defer p.Close()

	res, err := p.UpdateQuantity(r.Context(), lineID, *req.Quantity)
	h.respondWithCart(w, r, p, res, err)
}

// RemoveLine handles DELETE /api/v1/cart/items/{lineId}
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}

	sess := h.session(r)
	defer sess.Close()

	p := page.NewCartPage(h.deps, sess)
	defer p.Close()

	res, err := p.Remove(r.Context(), lineID)
	h.respondWithCart(w, r, p, res, err)
}

// respondWithCart answers a cart action with the refreshed cart.
func (h *Handler) respondWithCart(w http.ResponseWriter, r *http.Request, p *page.CartPage, res page.Result, err error) {
	if err != nil || res.Redirect != "" {
		h.respond(w, r, 0, nil, res, err)
		return
	}
	mountRes, err := p.Mount(r.Context())
	if mountRes.Notice == nil {
		mountRes.Notice = res.Notice
	}
	h.respond(w, r, http.StatusOK, p.State(), mountRes, err)
}

// Wishlist handles GET /api/v1/wishlist
func (h *Handler) Wishlist(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewWishlistPage(h.deps, sess)
	defer p.Close()

	res, err := p.Mount(r.Context())
	h.respond(w, r, http.StatusOK, p.State(), res, err)
}

// ToggleWishlist handles POST /api/v1/wishlist/{id}/toggle where id is a
// product id. The current liked state is read from the store.
func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	sess := h.session(r)
	defer sess.Close()

	if _, ok := sess.Current(); !ok {
		h.respond(w, r, 0, nil, page.Result{Redirect: page.AuthPath}, nil)
		return
	}

	p := page.NewProductPage(h.deps, sess, productID)
	defer p.Close()

	if err := p.Mount(r.Context()); err != nil {
		h.respond(w, r, 0, nil, page.Result{}, err)
		return
	}
	if p.State().NotFound {
		h.respond(w, r, 0, nil, page.Result{}, apperrors.NotFound("product", productID))
		return
	}

	res, err := p.ToggleLike(r.Context())
	h.respond(w, r, http.StatusOK, ToggleResponse{ProductID: productID, Liked: p.State().Liked}, res, err)
}

// RemoveWishlistEntry handles DELETE /api/v1/wishlist/{id}
func (h *Handler) RemoveWishlistEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sess := h.session(r)
	defer sess.Close()

	p := page.NewWishlistPage(h.deps, sess)
	defer p.Close()

	res, err := p.Remove(r.Context(), entryID)
	h.respond(w, r, http.StatusOK, nil, res, err)
}

// MoveToCart handles POST /api/v1/wishlist/{id}/move-to-cart
func (h *Handler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sess := h.session(r)
	defer sess.Close()

	p := page.NewWishlistPage(h.deps, sess)
	defer p.Close()

	res, err := p.AddToCart(r.Context(), entryID)
	h.respond(w, r, http.StatusOK, nil, res, err)
}
