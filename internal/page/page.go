// Package page holds the storefront's page controllers. A controller is
// created per view, owns that view's state, and is closed when the view goes
// away; results that arrive after Close are dropped.
package page

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notice"
	"github.com/utafrali/storefront/internal/service"
)

// Navigation targets.
const (
	HomePath = "/"
	AuthPath = "/auth"
	ShopPath = "/shop"
)

// ErrClosed is returned when a result arrives after the page was closed.
var ErrClosed = errors.New("page closed")

// IdentitySource supplies the current identity. *session.Session
// implements it.
type IdentitySource interface {
	Current() (domain.Identity, bool)
}

// Anonymous is an IdentitySource with nobody signed in.
type Anonymous struct{}

// Current implements IdentitySource.
func (Anonymous) Current() (domain.Identity, bool) { return domain.Identity{}, false }

// Deps are the services shared by every page.
type Deps struct {
	LineItems      *service.LineItemService
	Catalog        *service.CatalogService
	Inbox          *service.InboxService
	Account        *service.AccountService
	WhatsAppNumber string
	NoticeDuration time.Duration
	Logger         *slog.Logger
}

// Result is the outcome of a page action: where to navigate, if anywhere,
// and the notice to show.
type Result struct {
	Redirect string         `json:"redirect,omitempty"`
	Notice   *notice.Notice `json:"notice,omitempty"`
}

// EmptyState is shown instead of a list with no entries.
type EmptyState struct {
	Message     string `json:"message"`
	ActionLabel string `json:"action_label,omitempty"`
	ActionPath  string `json:"action_path,omitempty"`
}

// base carries the lifecycle shared by all pages.
type base struct {
	deps    Deps
	session IdentitySource
	notices *notice.Queue
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func (b *base) init(deps Deps, session IdentitySource) {
	if session == nil {
		session = Anonymous{}
	}
	b.logger = deps.Logger
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.deps = deps
	b.session = session
	b.notices = notice.New(deps.NoticeDuration)
	b.ctx, b.cancel = context.WithCancel(context.Background())
}

// Notices returns the page's notice slot.
func (b *base) Notices() *notice.Queue {
	return b.notices
}

// Close unmounts the page. In-flight calls are canceled and their results
// dropped.
func (b *base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.cancel()
	b.notices.Close()
}

// join returns a context canceled when either ctx is done or the page closes.
func (b *base) join(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(b.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// apply runs fn under the page lock unless the page is closed.
func (b *base) apply(fn func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	fn()
	return nil
}

// identity returns the signed-in identity or a redirect to the auth page.
func (b *base) identity() (domain.Identity, *Result) {
	id, ok := b.session.Current()
	if !ok {
		return domain.Identity{}, &Result{Redirect: AuthPath}
	}
	return id, nil
}

func (b *base) show(kind notice.Kind, message string) Result {
	b.notices.Show(kind, message)
	n := b.notices.Current()
	return Result{Notice: &n}
}

// showIfOpen shows a notice unless the page was closed meanwhile.
func (b *base) showIfOpen(kind notice.Kind, message string) (Result, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return Result{}, ErrClosed
	}
	return b.show(kind, message), nil
}
