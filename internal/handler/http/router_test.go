package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/lock"
	"github.com/utafrali/storefront/internal/page"
	"github.com/utafrali/storefront/internal/repository/remote"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/store/memory"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testServer struct {
	router http.Handler
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.Load(context.Background(), memory.DefaultSeed()))

	logger := testLogger()
	products := remote.NewProductRepository(s)
	wishlist := remote.NewWishlistRepository(s)
	accounts := remote.NewAccountRepository(s)

	deps := page.Deps{
		LineItems: service.NewLineItemService(
			remote.NewCartRepository(s), wishlist, products,
			lock.NewLocal(), event.Noop{}, logger,
		),
		Catalog:        service.NewCatalogService(products, wishlist, logger),
		Inbox:          service.NewInboxService(remote.NewNotificationRepository(s), logger),
		Account:        service.NewAccountService(accounts, logger),
		WhatsAppNumber: "919876543210",
		NoticeDuration: time.Minute,
		Logger:         logger,
	}
	sessions := session.NewManager(
		remote.NewCredentialRepository(s),
		accounts,
		session.NewTokenManager("test-secret", time.Hour),
		session.NewMemoryRegistry(),
		bcrypt.MinCost,
		logger,
	)

	return &testServer{
		router: NewRouter(deps, sessions, health.NewHandler(), logger, RouterConfig{CORS: middleware.DefaultCORSConfig()}),
		store:  s,
	}
}

type noticeBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Notice   *noticeBody     `json:"notice"`
	Redirect string          `json:"redirect"`
	Error    *errorBody      `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (ts *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	return ts.signUpGrant(t, email).Token
}

func (ts *testServer) signUpGrant(t *testing.T, email string) session.Grant {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/api/v1/auth/sign-up", "", map[string]string{
		"email":    email,
		"password": "secret-pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, page.HomePath, env.Redirect)

	var grant session.Grant
	require.NoError(t, json.Unmarshal(env.Data, &grant))
	require.NotEmpty(t, grant.Token)
	return grant
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestRouter_HealthLive(t *testing.T) {
	ts := newTestServer(t)
	rec, _ := ts.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CartFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "shopper@example.com")

	rec, env := ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeData[page.CartState](t, env)
	assert.Empty(t, cart.Items)
	require.NotNil(t, cart.Empty)
	assert.Equal(t, "Your cart is empty", cart.Empty.Message)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "cotton-tee"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.Notice)
	assert.Equal(t, page.MsgAddedToCart, env.Notice.Message)

	_, env = ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	cart = decodeData[page.CartState](t, env)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	require.NotNil(t, cart.Items[0].Product)
	assert.True(t, cart.Total.Equal(cart.Items[0].Product.Price))

	lineID := cart.Items[0].ID
	three := 3
	rec, env = ts.do(t, http.MethodPut, "/api/v1/cart/items/"+lineID, token, SetQuantityRequest{Quantity: &three})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart = decodeData[page.CartState](t, env)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	zero := 0
	rec, env = ts.do(t, http.MethodPut, "/api/v1/cart/items/"+lineID, token, SetQuantityRequest{Quantity: &zero})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart = decodeData[page.CartState](t, env)
	assert.Empty(t, cart.Items)
}

func TestRouter_AnonymousMutationIsRedirected(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/v1/cart/items", "", AddToCartRequest{ProductID: "cotton-tee"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, page.AuthPath, env.Redirect)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SIGN_IN_REQUIRED", env.Error.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/wishlist/cotton-tee/toggle", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, page.AuthPath, env.Redirect)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	ts := newTestServer(t)
	rec, _ := ts.do(t, http.MethodGet, "/api/v1/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SignOutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "leaver@example.com")

	rec, env := ts.do(t, http.MethodPost, "/api/v1/auth/sign-out", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, page.HomePath, env.Redirect)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SignInFailures(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "known@example.com")

	rec, env := ts.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
		"email": "known@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Empty(t, env.Redirect)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "password")

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/auth/sign-up", "", map[string]string{
		"email": "known@example.com", "password": "secret-pw",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_ShopAndProduct(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/shop?category=best-sellers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shop := decodeData[page.ListState](t, env)
	require.NotEmpty(t, shop.Products)
	for _, p := range shop.Products {
		assert.Equal(t, domain.CategoryBestSellers, p.Category)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/shop/best-sellers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.LessOrEqual(t, len(decodeData[page.ListState](t, env).Products), service.BestSellersLimit)

	rec, env = ts.do(t, http.MethodGet, "/api/v1/shop/cotton-tee", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeData[page.ProductState](t, env)
	require.NotNil(t, detail.Product)
	assert.Equal(t, "cotton-tee", detail.Product.ProductID)

	rec, env = ts.do(t, http.MethodGet, "/api/v1/shop/cotton-tee/query-link", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	link := decodeData[QueryLinkResponse](t, env)
	assert.True(t, strings.HasPrefix(link.URL, "https://wa.me/919876543210?text=Hey%2C%20I%20want"), link.URL)

	rec, env = ts.do(t, http.MethodGet, "/api/v1/shop/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRouter_WishlistToggleAndMove(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "fan@example.com")

	rec, env := ts.do(t, http.MethodPost, "/api/v1/wishlist/silk-scarf/toggle", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeData[ToggleResponse](t, env).Liked)

	_, env = ts.do(t, http.MethodGet, "/api/v1/wishlist", token, nil)
	list := decodeData[page.WishlistState](t, env)
	require.Len(t, list.Items, 1)
	entryID := list.Items[0].ID

	rec, env = ts.do(t, http.MethodPost, "/api/v1/wishlist/"+entryID+"/move-to-cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.Notice)
	assert.Equal(t, page.MsgAddedToCart, env.Notice.Message)

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/wishlist/"+entryID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/wishlist/silk-scarf/toggle", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[ToggleResponse](t, env).Liked)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/wishlist/silk-scarf/toggle", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[ToggleResponse](t, env).Liked)
}

func TestRouter_ContentTypeEnforced(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`product_id=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_Session(t *testing.T) {
	ts := newTestServer(t)

	_, env := ts.do(t, http.MethodGet, "/api/v1/session", "", nil)
	assert.False(t, decodeData[SessionResponse](t, env).SignedIn)

	token := ts.signUp(t, "me@example.com")
	rec, env := ts.do(t, http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeData[SessionResponse](t, env)
	assert.True(t, resp.SignedIn)
	require.NotNil(t, resp.Identity)
	assert.Equal(t, "me@example.com", resp.Identity.Email)
	assert.False(t, resp.Identity.IsAdmin)
}

func TestRouter_AdminSendsNotification(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	recipient := ts.signUpGrant(t, "recipient@example.com")
	admin := ts.signUpGrant(t, "admin@example.com")

	body := SendNotificationRequest{UserID: recipient.Identity.UserID, Title: "Order shipped", Message: "On its way"}

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/admin/notifications", recipient.Token, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := ts.store.Insert(ctx, store.Admins, store.Record{"user_id": admin.Identity.UserID})
	require.NoError(t, err)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/admin/notifications", admin.Token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := ts.do(t, http.MethodGet, "/api/v1/notifications", recipient.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decodeData[page.NotificationsState](t, env)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, 1, inbox.Unread)
	id := inbox.Notifications[0].ID

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/notifications/"+id+"/read", recipient.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, env = ts.do(t, http.MethodGet, "/api/v1/notifications", recipient.Token, nil)
	assert.Zero(t, decodeData[page.NotificationsState](t, env).Unread)

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/notifications/"+id, recipient.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, env = ts.do(t, http.MethodGet, "/api/v1/notifications", recipient.Token, nil)
	empty := decodeData[page.NotificationsState](t, env)
	assert.Empty(t, empty.Notifications)
	require.NotNil(t, empty.Empty)
}

func TestRouter_InvalidIDRejected(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "ids@example.com")

	rec, env := ts.do(t, http.MethodDelete, "/api/v1/cart/items/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_PARAMETER", env.Error.Code)
}

func TestRouter_RemoveMissingLineShowsNotice(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "missing@example.com")

	rec, env := ts.do(t, http.MethodDelete, "/api/v1/cart/items/6f1c1f0e-8d3a-4c7b-9a51-3f1a2b4c5d6e", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "error", env.Notice.Kind)
	assert.Equal(t, page.MsgRemoveCartFailed, env.Notice.Message)
}
