package page

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notice"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/session"
)

// EmptyInbox is shown when a user has no notifications.
var EmptyInbox = EmptyState{Message: "No notifications yet"}

// NotificationsState is the state of the notifications page.
type NotificationsState struct {
	Loading       bool                  `json:"loading"`
	Notifications []domain.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
	Empty         *EmptyState           `json:"empty,omitempty"`
}

// NotificationsPage shows the signed-in user's inbox.
type NotificationsPage struct {
	base
	state NotificationsState
}

// NewNotificationsPage creates the notifications page.
func NewNotificationsPage(deps Deps, session IdentitySource) *NotificationsPage {
	p := &NotificationsPage{state: NotificationsState{Loading: true}}
	p.init(deps, session)
	return p
}

// Mount fetches the inbox, or redirects anonymous users to sign in.
func (p *NotificationsPage) Mount(ctx context.Context) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	inbox, err := p.deps.Inbox.List(ctx, id)
	if applyErr := p.apply(func() {
		p.state.Loading = false
		if err == nil {
			p.state.Notifications = inbox.Notifications
			p.refreshLocked()
		}
	}); applyErr != nil {
		return Result{}, applyErr
	}
	return Result{}, err
}

// MarkRead flags a notification as read.
func (p *NotificationsPage) MarkRead(ctx context.Context, notificationID string) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	if err := p.deps.Inbox.MarkRead(ctx, id, notificationID); err != nil {
		res, _ := p.showIfOpen(notice.Error, MsgInboxFailed)
		return res, err
	}
	return Result{}, p.apply(func() {
		for i := range p.state.Notifications {
			if p.state.Notifications[i].ID == notificationID {
				p.state.Notifications[i].IsRead = true
			}
		}
		p.refreshLocked()
	})
}

// Delete removes a notification.
func (p *NotificationsPage) Delete(ctx context.Context, notificationID string) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	if err := p.deps.Inbox.Delete(ctx, id, notificationID); err != nil {
		res, _ := p.showIfOpen(notice.Error, MsgInboxFailed)
		return res, err
	}
	return Result{}, p.apply(func() {
		kept := p.state.Notifications[:0]
		for _, n := range p.state.Notifications {
			if n.ID != notificationID {
				kept = append(kept, n)
			}
		}
		p.state.Notifications = kept
		p.refreshLocked()
	})
}

// State returns a snapshot of the page.
func (p *NotificationsPage) State() NotificationsState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Notifications = append([]domain.Notification(nil), p.state.Notifications...)
	return s
}

func (p *NotificationsPage) refreshLocked() {
	p.state.Unread = 0
	for _, n := range p.state.Notifications {
		if !n.IsRead {
			p.state.Unread++
		}
	}
	if len(p.state.Notifications) == 0 {
		empty := EmptyInbox
		p.state.Empty = &empty
	} else {
		p.state.Empty = nil
	}
}

// ProfileState is the state of the profile page.
type ProfileState struct {
	Loading bool                 `json:"loading"`
	Account *service.AccountPage `json:"account,omitempty"`
}

// ProfilePage shows the profile, addresses and orders.
type ProfilePage struct {
	base
	state ProfileState
}

// NewProfilePage creates the profile page.
func NewProfilePage(deps Deps, session IdentitySource) *ProfilePage {
	p := &ProfilePage{state: ProfileState{Loading: true}}
	p.init(deps, session)
	return p
}

// Mount fetches the account, or redirects anonymous users to sign in.
func (p *ProfilePage) Mount(ctx context.Context) (Result, error) {
	id, redirect := p.identity()
	if redirect != nil {
		return *redirect, nil
	}

	ctx, done := p.join(ctx)
	defer done()

	account, err := p.deps.Account.Page(ctx, id)
	if applyErr := p.apply(func() {
		p.state.Loading = false
		if err == nil {
			p.state.Account = account
		}
	}); applyErr != nil {
		return Result{}, applyErr
	}
	return Result{}, err
}

// State returns a snapshot of the page.
func (p *ProfilePage) State() ProfileState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Authenticator signs a client in and out. *session.Session implements it.
type Authenticator interface {
	IdentitySource
	SignIn(ctx context.Context, in session.Credentials) (*session.Grant, error)
	SignUp(ctx context.Context, in session.Credentials) (*session.Grant, error)
	SignOut(ctx context.Context) error
}

// AuthState is the state of the auth form.
type AuthState struct {
	Error string `json:"error,omitempty"`
}

// AuthPage is the sign-in and sign-up form.
type AuthPage struct {
	base
	auth  Authenticator
	state AuthState
}

// NewAuthPage creates the auth page.
func NewAuthPage(deps Deps, auth Authenticator) *AuthPage {
	p := &AuthPage{auth: auth}
	p.init(deps, auth)
	return p
}

// SignIn signs in and navigates home. A failure keeps the user on the form
// with the error shown.
func (p *AuthPage) SignIn(ctx context.Context, in session.Credentials) (*session.Grant, Result, error) {
	return p.submit(ctx, in, p.auth.SignIn)
}

// SignUp creates an account, signs in and navigates home.
func (p *AuthPage) SignUp(ctx context.Context, in session.Credentials) (*session.Grant, Result, error) {
	return p.submit(ctx, in, p.auth.SignUp)
}

// SignOut signs out and navigates home.
func (p *AuthPage) SignOut(ctx context.Context) (Result, error) {
	ctx, done := p.join(ctx)
	defer done()

	if err := p.auth.SignOut(ctx); err != nil {
		p.logger.WarnContext(ctx, "sign-out revoke failed", slog.String("error", err.Error()))
		return Result{Redirect: HomePath}, err
	}
	return Result{Redirect: HomePath}, nil
}

// State returns a snapshot of the page.
func (p *AuthPage) State() AuthState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *AuthPage) submit(
	ctx context.Context,
	in session.Credentials,
	fn func(context.Context, session.Credentials) (*session.Grant, error),
) (*session.Grant, Result, error) {
	ctx, done := p.join(ctx)
	defer done()

	grant, err := fn(ctx, in)
	if applyErr := p.apply(func() {
		p.state.Error = ""
		if err != nil {
			p.state.Error = errorMessage(err)
		}
	}); applyErr != nil {
		return nil, Result{}, applyErr
	}
	if err != nil {
		return nil, Result{}, err
	}
	return grant, Result{Redirect: HomePath}, nil
}
