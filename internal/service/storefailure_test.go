package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/lock"
	"github.com/utafrali/storefront/internal/repository/remote"
	"github.com/utafrali/storefront/internal/store/rest"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// restBackedService wires the line-item service to a PostgREST stub that
// answers every request with status and body. It returns the number of
// writes the stub received.
func restBackedService(t *testing.T, status int, body string) (*LineItemService, *atomic.Int32) {
	t.Helper()
	var writes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writes.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	logger := newTestLogger()
	doer := httpclient.NewCircuitBreakerClient(
		httpclient.NewWithHTTPClient(srv.Client(), httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("service-test-"+t.Name()),
		logger,
	)
	client, err := rest.New(rest.Config{BaseURL: srv.URL + "/", APIKey: "anon-key"}, doer, database.QueryTracer{}, logger)
	require.NoError(t, err)

	svc := NewLineItemService(
		remote.NewCartRepository(client),
		remote.NewWishlistRepository(client),
		remote.NewProductRepository(client),
		lock.NewLocal(),
		event.Noop{},
		logger,
	)
	return svc, &writes
}

func TestAddOrIncrementCart_MissingRelationDoesNotInsert(t *testing.T) {
	svc, writes := restBackedService(t, http.StatusNotFound,
		`{"code":"PGRST205","message":"Could not find the table 'public.cart' in the schema cache"}`)

	line, err := svc.AddOrIncrementCart(context.Background(), shopper, "cotton-tee")

	require.Error(t, err)
	assert.Nil(t, line)
	assert.ErrorIs(t, err, apperrors.ErrRemoteStore)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, writes.Load())
}

func TestAddOrIncrementCart_RejectedStoreKeyIsStoreFailure(t *testing.T) {
	svc, writes := restBackedService(t, http.StatusUnauthorized, `{"message":"Invalid API key"}`)

	_, err := svc.AddOrIncrementCart(context.Background(), shopper, "cotton-tee")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRemoteStore)
	assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
	assert.Zero(t, writes.Load())
}

func TestStoreError_Classification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		remoteStore bool
		sentinel    error
	}{
		{"unauthorized", apperrors.Unauthorized("store: Invalid API key"), true, apperrors.ErrRemoteStore},
		{"forbidden", apperrors.Forbidden("store: permission denied"), true, apperrors.ErrRemoteStore},
		{"unavailable", &apperrors.AppError{Code: "SERVICE_UNAVAILABLE", Status: http.StatusServiceUnavailable, Err: apperrors.ErrServiceUnavail}, true, apperrors.ErrRemoteStore},
		{"plain error", io.ErrUnexpectedEOF, true, apperrors.ErrRemoteStore},
		{"not found", apperrors.NotFound("cart line", "l1"), false, apperrors.ErrNotFound},
		{"conflict", apperrors.Conflict("duplicate"), false, apperrors.ErrConflict},
		{"sign in", apperrors.Unauthenticated(), false, apperrors.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storeError("add to cart", tt.err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.remoteStore, apperrors.HTTPStatus(err) == http.StatusBadGateway)
		})
	}
}
