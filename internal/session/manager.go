// Package session is the storefront's identity provider: credentials,
// session tokens and the client-scoped Session that pages read identity from.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// Credentials is the email and password pair submitted on the auth page.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Grant is the outcome of a successful sign-in or sign-up.
type Grant struct {
	Identity  domain.Identity `json:"identity"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Manager signs users up, in and out and resolves tokens to identities.
type Manager struct {
	credentials repository.CredentialRepository
	accounts    repository.AccountRepository
	tokens      *TokenManager
	registry    Registry
	bcryptCost  int
	logger      *slog.Logger
}

// NewManager creates a session manager. A bcryptCost of zero uses
// bcrypt.DefaultCost.
func NewManager(
	credentials repository.CredentialRepository,
	accounts repository.AccountRepository,
	tokens *TokenManager,
	registry Registry,
	bcryptCost int,
	logger *slog.Logger,
) *Manager {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Manager{
		credentials: credentials,
		accounts:    accounts,
		tokens:      tokens,
		registry:    registry,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// SignUp creates an account and its profile and opens a session.
func (m *Manager) SignUp(ctx context.Context, in Credentials) (*Grant, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), m.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred, err := m.credentials.Insert(ctx, &domain.Credential{
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	// The account is usable without a profile; the profile page shows an
	// empty one until it exists.
	if _, err := m.accounts.CreateProfile(ctx, &domain.Profile{
		ID:    cred.ID,
		Name:  displayName(cred.Email),
		Email: cred.Email,
	}); err != nil {
		m.logger.ErrorContext(ctx, "failed to create profile on sign-up",
			slog.String("user_id", cred.ID),
			slog.String("error", err.Error()),
		)
	}

	grant, err := m.open(ctx, domain.Identity{UserID: cred.ID, Email: cred.Email})
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "user signed up", slog.String("user_id", cred.ID))
	return grant, nil
}

// SignIn verifies credentials and opens a session.
func (m *Manager) SignIn(ctx context.Context, in Credentials) (*Grant, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	cred, err := m.credentials.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	id := domain.Identity{UserID: cred.ID, Email: cred.Email, IsAdmin: m.isAdmin(ctx, cred.ID)}
	grant, err := m.open(ctx, id)
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "user signed in", slog.String("user_id", cred.ID))
	return grant, nil
}

// SignOut revokes the session behind token.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired session")
	}
	if err := m.registry.Remove(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	m.logger.InfoContext(ctx, "user signed out", slog.String("user_id", claims.UserID))
	return nil
}

// Resolve returns the identity of a live session token.
func (m *Manager) Resolve(ctx context.Context, token string) (*domain.Identity, string, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid or expired session")
	}

	live, err := m.registry.Exists(ctx, claims.ID)
	if err != nil {
		return nil, "", fmt.Errorf("check session: %w", err)
	}
	if !live {
		return nil, "", apperrors.Unauthorized("session has ended")
	}

	return &domain.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		IsAdmin: m.isAdmin(ctx, claims.UserID),
	}, claims.ID, nil
}

// Validate adapts Resolve to middleware.TokenValidator.
func (m *Manager) Validate(ctx context.Context, token string) (*middleware.Claims, error) {
	id, sessionID, err := m.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		UserID:    id.UserID,
		Email:     id.Email,
		IsAdmin:   id.IsAdmin,
		SessionID: sessionID,
	}, nil
}

func (m *Manager) open(ctx context.Context, id domain.Identity) (*Grant, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := m.tokens.Issue(id, sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.registry.Add(ctx, sessionID, id.UserID, m.tokens.Expiry()); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	return &Grant{Identity: id, Token: token, ExpiresAt: expiresAt}, nil
}

// isAdmin treats a failed lookup as "not an admin".
func (m *Manager) isAdmin(ctx context.Context, userID string) bool {
	admin, err := m.accounts.IsAdmin(ctx, userID)
	if err != nil {
		m.logger.WarnContext(ctx, "admin lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return admin
}

func displayName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
