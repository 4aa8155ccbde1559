package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/remote"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/store/memory"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

const testSecret = "test-secret-with-enough-length"

func newTestManager(t *testing.T) (*Manager, *memory.Store) {
	t.Helper()
	s := memory.New()
	m := NewManager(
		remote.NewCredentialRepository(s),
		remote.NewAccountRepository(s),
		NewTokenManager(testSecret, time.Hour),
		NewMemoryRegistry(),
		bcrypt.MinCost,
		logger.Discard(),
	)
	return m, s
}

var asha = Credentials{Email: "asha@example.com", Password: "s3cret!"}

func TestManager_SignUpCreatesProfile(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()

	grant, err := m.SignUp(ctx, asha)
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, "asha@example.com", grant.Identity.Email)
	assert.False(t, grant.Identity.IsAdmin)

	profile, err := remote.NewAccountRepository(s).GetProfile(ctx, grant.Identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "asha", profile.Name)

	_, err = m.SignUp(ctx, asha)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestManager_SignUpValidatesInput(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.SignUp(context.Background(), Credentials{Email: "not-an-email", Password: "123"})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "email")
	assert.Contains(t, verr.Fields(), "password")
}

func TestManager_SignInAndResolve(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()

	up, err := m.SignUp(ctx, asha)
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.Admins, store.Record{"user_id": up.Identity.UserID})
	require.NoError(t, err)

	in, err := m.SignIn(ctx, asha)
	require.NoError(t, err)
	assert.True(t, in.Identity.IsAdmin)

	id, sessionID, err := m.Resolve(ctx, in.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, up.Identity.UserID, id.UserID)
	assert.True(t, id.IsAdmin)

	claims, err := m.Validate(ctx, in.Token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
}

func TestManager_SignInRejectsBadCredentials(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	_, err := m.SignUp(ctx, asha)
	require.NoError(t, err)

	_, err = m.SignIn(ctx, Credentials{Email: asha.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = m.SignIn(ctx, Credentials{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestManager_SignOutRevokes(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	grant, err := m.SignUp(ctx, asha)
	require.NoError(t, err)

	require.NoError(t, m.SignOut(ctx, grant.Token))
	_, _, err = m.Resolve(ctx, grant.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	assert.ErrorIs(t, m.SignOut(ctx, "garbage"), apperrors.ErrUnauthorized)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	good := NewTokenManager(testSecret, time.Hour)
	bad := NewTokenManager("another-secret", time.Hour)

	token, _, err := bad.Issue(domain.Identity{UserID: "u1"}, "s1")
	require.NoError(t, err)
	_, err = good.Parse(token)
	assert.Error(t, err)

	expired := NewTokenManager(testSecret, -time.Minute)
	token, _, err = expired.Issue(domain.Identity{UserID: "u1"}, "s1")
	require.NoError(t, err)
	_, err = good.Parse(token)
	assert.Error(t, err)
}

func TestRedisRegistry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	r := NewRedisRegistry(client)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, "s1", "u1", time.Minute))
	ok, err := r.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(registryKeyPrefix+"s1"))

	mr.FastForward(2 * time.Minute)
	ok, err = r.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Add(ctx, "s2", "u1", time.Minute))
	require.NoError(t, r.Remove(ctx, "s2"))
	ok, err = r.Exists(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRegistry_Expires(t *testing.T) {
	r := NewMemoryRegistry()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, "s1", "u1", time.Minute))
	ok, _ := r.Exists(ctx, "s1")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = r.Exists(ctx, "s1")
	assert.False(t, ok)
}

func TestSession_SubscribeSeesSignInAndOut(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	s := New(m)

	_, ok := s.Current()
	assert.False(t, ok)

	changes, unsubscribe := s.Subscribe()
	defer unsubscribe()

	_, err := s.SignUp(ctx, asha)
	require.NoError(t, err)

	c := <-changes
	assert.True(t, c.SignedIn)
	assert.Equal(t, asha.Email, c.Identity.Email)

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, c.Identity, id)

	require.NoError(t, s.SignOut(ctx))
	c = <-changes
	assert.False(t, c.SignedIn)
	_, ok = s.Current()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
}

func TestSession_KeepsOnlyLatestUnreadChange(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	s := New(m)

	changes, unsubscribe := s.Subscribe()
	defer unsubscribe()

	_, err := s.SignUp(ctx, asha)
	require.NoError(t, err)
	require.NoError(t, s.SignOut(ctx))

	c := <-changes
	assert.False(t, c.SignedIn)
	select {
	case extra := <-changes:
		t.Fatalf("unexpected change %+v", extra)
	default:
	}
}

func TestSession_UnsubscribeClosesChannel(t *testing.T) {
	m, _ := newTestManager(t)
	s := New(m)

	changes, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()

	_, open := <-changes
	assert.False(t, open)

	// Later changes do not panic on the closed channel.
	_, err := s.SignUp(context.Background(), asha)
	require.NoError(t, err)
}

func TestSession_CloseEndsAllSubscriptions(t *testing.T) {
	m, _ := newTestManager(t)
	s := New(m)

	a, unsubA := s.Subscribe()
	b, _ := s.Subscribe()
	s.Close()
	unsubA()

	_, open := <-a
	assert.False(t, open)
	_, open = <-b
	assert.False(t, open)

	c, _ := s.Subscribe()
	_, open = <-c
	assert.False(t, open)
}

func TestAttach(t *testing.T) {
	m, _ := newTestManager(t)
	s := Attach(m, domain.Identity{UserID: "u1"}, "tok")

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "tok", s.Token())
}
