package http

import (
	"context"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/page"
	"github.com/utafrali/storefront/internal/session"
)

// SignUp handles POST /api/v1/auth/sign-up
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, http.StatusCreated, (*page.AuthPage).SignUp)
}

// SignIn handles POST /api/v1/auth/sign-in
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, http.StatusOK, (*page.AuthPage).SignIn)
}

func (h *Handler) authenticate(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	submit func(*page.AuthPage, context.Context, session.Credentials) (*session.Grant, page.Result, error),
) {
	var req session.Credentials
	if err := decode(w, r, &req); err != nil {
		h.respond(w, r, 0, nil, page.Result{}, err)
		return
	}

	sess := session.New(h.sessions)
	defer sess.Close()

	p := page.NewAuthPage(h.deps, sess)
	defer p.Close()

	grant, res, err := submit(p, r.Context(), req)
	h.respond(w, r, status, grant, res, err)
}

// SignOut handles POST /api/v1/auth/sign-out
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewAuthPage(h.deps, sess)
	defer p.Close()

	res, err := p.SignOut(r.Context())
	h.respond(w, r, http.StatusOK, nil, res, err)
}

// Notifications handles GET /api/v1/notifications
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewNotificationsPage(h.deps, sess)
	defer p.Close()

	res, err := p.Mount(r.Context())
	h.respond(w, r, http.StatusOK, p.State(), res, err)
}

// MarkNotificationRead handles POST /api/v1/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sess := h.session(r)
	defer sess.Close()

	p := page.NewNotificationsPage(h.deps, sess)
	defer p.Close()

	res, err := p.MarkRead(r.Context(), notificationID)
	h.respond(w, r, http.StatusOK, nil, res, err)
}

// DeleteNotification handles DELETE /api/v1/notifications/{id}
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sess := h.session(r)
	defer sess.Close()

	p := page.NewNotificationsPage(h.deps, sess)
	defer p.Close()

	res, err := p.Delete(r.Context(), notificationID)
	h.respond(w, r, http.StatusOK, nil, res, err)
}

// Profile handles GET /api/v1/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	p := page.NewProfilePage(h.deps, sess)
	defer p.Close()

	res, err := p.Mount(r.Context())
	h.respond(w, r, http.StatusOK, p.State(), res, err)
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	SignedIn bool             `json:"signed_in"`
	Identity *domain.Identity `json:"identity,omitempty"`
}

// Session handles GET /api/v1/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	defer sess.Close()

	resp := SessionResponse{}
	if id, ok := sess.Current(); ok {
		resp.SignedIn = true
		resp.Identity = &id
	}
	h.respond(w, r, http.StatusOK, resp, page.Result{}, nil)
}

// SendNotificationRequest is the JSON request body for sending a notification.
type SendNotificationRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"max=2000"`
}

// SendNotification handles POST /api/v1/admin/notifications
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req SendNotificationRequest
	if err := decode(w, r, &req); err != nil {
		h.respond(w, r, 0, nil, page.Result{}, err)
		return
	}

	sess := h.session(r)
	defer sess.Close()

	id, _ := sess.Current()
	n, err := h.deps.Inbox.Send(r.Context(), id, req.UserID, req.Title, req.Message)
	h.respond(w, r, http.StatusCreated, n, page.Result{}, err)
}
