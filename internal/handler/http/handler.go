package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/page"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

const maxBodyBytes = 1 << 20

// Handler serves the storefront API. Each request builds the page it
// drives, runs one mount or action on it and closes it.
type Handler struct {
	deps     page.Deps
	sessions *session.Manager
	logger   *slog.Logger
}

// NewHandler creates a new storefront HTTP handler.
func NewHandler(deps page.Deps, sessions *session.Manager, logger *slog.Logger) *Handler {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Handler{deps: deps, sessions: sessions, logger: logger}
}

// session returns the caller's session as resolved by the Authenticate
// middleware.
func (h *Handler) session(r *http.Request) *session.Session {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return session.New(h.sessions)
	}
	token, _ := middleware.BearerToken(r.Header.Get("Authorization"))
	return session.Attach(h.sessions, domain.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
	}, token)
}

// respond writes the outcome of a page call. A redirect to the auth page is
// reported as 401 so API clients can tell it from success.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, data any, res page.Result, err error) {
	var notice any
	if res.Notice != nil {
		notice = res.Notice
	}

	if res.Redirect == page.AuthPath {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Redirect: res.Redirect,
			Error: &httputil.ErrorResponse{
				Code:    "SIGN_IN_REQUIRED",
				Message: "sign in to continue",
			},
		})
		return
	}

	if err != nil {
		if notice == nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		httputil.WriteErrorWithNotice(w, r, err, notice, h.logger)
		return
	}

	httputil.WriteJSON(w, status, httputil.Response{
		Data:     data,
		Notice:   notice,
		Redirect: res.Redirect,
	})
}

// pathID returns the uuid path parameter name. On failure it writes a 400
// and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, name))
	if !ok {
		return "", false
	}
	return id.String(), true
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid request body: " + err.Error())
	}
	return validator.Validate(dst)
}
