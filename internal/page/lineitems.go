package page

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notice"
)

// Empty states of the line-item pages.
var (
	EmptyCart = EmptyState{
		Message:     "Your cart is empty",
		ActionLabel: "start shopping",
		ActionPath:  ShopPath,
	}
	EmptyWishlist = EmptyState{
		Message:     "Your wishlist is empty",
		ActionLabel: "start shopping",
		ActionPath:  ShopPath,
	}
)

// CartState is the state of the cart page.
type CartState struct {
	Loading bool              `json:"loading"`
	Items   []domain.CartItem `json:"items"`
	Total   decimal.Decimal   `json:"total"`
	Empty   *EmptyState       `json:"empty,omitempty"`
}

// CartPage shows the signed-in user's cart.
type CartPage struct {
	base
	state CartState
}

// NewCartPage creates the cart page.
func NewCartPage(deps Deps, session IdentitySource) *CartPage {
	p := &CartPage{state: CartState{Loading: true}}
	p.init(deps, session)
	return p
}

// Mount fetches the cart, or redirects anonymous users to sign in.
func (p *CartPage) Mount(ctx context.Context) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	cart, err := p.deps.LineItems.Cart(ctx, id)
	if applyErr := p.apply(func() {
		p.state.Loading = false
		if err == nil {
			p.state.Items = cart.Items
			p.refreshLocked()
		}
	}); applyErr != nil {
		return Result{}, applyErr
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to load cart", slog.String("error", err.Error()))
	}
	return Result{}, err
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (p *CartPage) UpdateQuantity(ctx context.Context, lineID string, quantity int) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	if _, err := p.deps.LineItems.SetQuantity(ctx, id, lineID, quantity); err != nil {
		msg := MsgUpdateCartFailed
		if quantity <= 0 {
			msg = MsgRemoveCartFailed
		}
		res, _ := p.showIfOpen(notice.Error, msg)
		return res, err
	}

	return Result{}, p.apply(func() {
		if quantity <= 0 {
			p.removeLocked(lineID)
			return
		}
		for i := range p.state.Items {
			if p.state.Items[i].ID == lineID {
				p.state.Items[i].Quantity = quantity
			}
		}
		p.refreshLocked()
	})
}

// Remove deletes a line.
func (p *CartPage) Remove(ctx context.Context, lineID string) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	if err := p.deps.LineItems.RemoveLine(ctx, id, lineID); err != nil {
		res, _ := p.showIfOpen(notice.Error, MsgRemoveCartFailed)
		return res, err
	}
	return Result{}, p.apply(func() { p.removeLocked(lineID) })
}

// State returns a snapshot of the page.
func (p *CartPage) State() CartState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Items = append([]domain.CartItem(nil), p.state.Items...)
	return s
}

func (p *CartPage) removeLocked(lineID string) {
	kept := p.state.Items[:0]
	for _, it := range p.state.Items {
		if it.ID != lineID {
			kept = append(kept, it)
		}
	}
	p.state.Items = kept
	p.refreshLocked()
}

func (p *CartPage) refreshLocked() {
	p.state.Total = domain.CartTotal(p.state.Items)
	if len(p.state.Items) == 0 {
		empty := EmptyCart
		p.state.Empty = &empty
	} else {
		p.state.Empty = nil
	}
}

// WishlistState is the state of the wishlist page.
type WishlistState struct {
	Loading bool                  `json:"loading"`
	Items   []domain.WishlistItem `json:"items"`
	Empty   *EmptyState           `json:"empty,omitempty"`
}

// WishlistPage shows the signed-in user's wishlist.
type WishlistPage struct {
	base
	state WishlistState
}

// NewWishlistPage creates the wishlist page.
func NewWishlistPage(deps Deps, session IdentitySource) *WishlistPage {
	p := &WishlistPage{state: WishlistState{Loading: true}}
	p.init(deps, session)
	return p
}

// Mount fetches the wishlist, or redirects anonymous users to sign in.
func (p *WishlistPage) Mount(ctx context.Context) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	items, err := p.deps.LineItems.Wishlist(ctx, id)
	if applyErr := p.apply(func() {
		p.state.Loading = false
		if err == nil {
			p.state.Items = items
			p.refreshLocked()
		}
	}); applyErr != nil {
		return Result{}, applyErr
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to load wishlist", slog.String("error", err.Error()))
	}
	return Result{}, err
}

// Remove deletes an entry.
func (p *WishlistPage) Remove(ctx context.Context, entryID string) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	if err := p.deps.LineItems.RemoveWishlistEntry(ctx, id, entryID); err != nil {
		res, _ := p.showIfOpen(notice.Error, MsgWishlistFailed)
		return res, err
	}
	return Result{}, p.apply(func() {
		kept := p.state.Items[:0]
		for _, it := range p.state.Items {
			if it.ID != entryID {
				kept = append(kept, it)
			}
		}
		p.state.Items = kept
		p.refreshLocked()
	})
}

// AddToCart adds an entry's product to the cart. The entry stays listed.
func (p *WishlistPage) AddToCart(ctx context.Context, entryID string) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	if _, err := p.deps.LineItems.MoveWishlistToCart(ctx, id, entryID); err != nil {
		res, _ := p.showIfOpen(notice.Error, MsgAddToCartFailed)
		return res, err
	}
	return p.showIfOpen(notice.Success, MsgAddedToCart)
}

// State returns a snapshot of the page.
func (p *WishlistPage) State() WishlistState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Items = append([]domain.WishlistItem(nil), p.state.Items...)
	return s
}

func (p *WishlistPage) refreshLocked() {
	if len(p.state.Items) == 0 {
		empty := EmptyWishlist
		p.state.Empty = &empty
	} else {
		p.state.Empty = nil
	}
}
