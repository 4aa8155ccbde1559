package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// NotificationRepository implements repository.NotificationRepository.
type NotificationRepository struct {
	client store.Client
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

// NewNotificationRepository creates a notification repository on client.
func NewNotificationRepository(client store.Client) *NotificationRepository {
	return &NotificationRepository{client: client}
}

// ListByUser implements repository.NotificationRepository.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	recs, err := r.client.Select(ctx, store.Notifications,
		store.Where(store.Eq("user_id", userID)).OrderBy("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return decodeAll[domain.Notification](recs)
}

// Insert implements repository.NotificationRepository.
func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	row := *n
	row.IsRead = false
	stamp(&row.ID, &row.CreatedAt)

	rec, err := encode(row)
	if err != nil {
		return nil, err
	}
	out, err := r.client.Insert(ctx, store.Notifications, rec)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return decode[domain.Notification](out)
}

// MarkRead implements repository.NotificationRepository.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	recs, err := r.client.Update(ctx, store.Notifications, store.Record{"is_read": true},
		store.Eq("id", id), store.Eq("user_id", userID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if len(recs) == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

// Delete implements repository.NotificationRepository.
func (r *NotificationRepository) Delete(ctx context.Context, userID, id string) error {
	n, err := r.client.Delete(ctx, store.Notifications, store.Eq("id", id), store.Eq("user_id", userID))
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

// AccountRepository implements repository.AccountRepository.
type AccountRepository struct {
	client store.Client
}

var _ repository.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates an account repository on client.
func NewAccountRepository(client store.Client) *AccountRepository {
	return &AccountRepository{client: client}
}

// GetProfile implements repository.AccountRepository.
func (r *AccountRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	recs, err := r.client.Select(ctx, store.Profiles, store.Where(store.Eq("id", userID)).WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(recs) == 0 {
		return nil, apperrors.NotFound("profile", userID)
	}
	return decode[domain.Profile](recs[0])
}

// CreateProfile implements repository.AccountRepository. The profile id is
// the user id and is never generated here.
func (r *AccountRepository) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	row := *p
	stamp(&row.ID, &row.CreatedAt)

	rec, err := encode(row)
	if err != nil {
		return nil, err
	}
	out, err := r.client.Insert(ctx, store.Profiles, rec)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return decode[domain.Profile](out)
}

// ListAddresses implements repository.AccountRepository.
func (r *AccountRepository) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	recs, err := r.client.Select(ctx, store.Addresses, store.Where(store.Eq("user_id", userID)))
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return decodeAll[domain.Address](recs)
}

// ListOrders implements repository.AccountRepository.
func (r *AccountRepository) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	recs, err := r.client.Select(ctx, store.Orders,
		store.Where(store.Eq("user_id", userID)).OrderBy("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return decodeAll[domain.Order](recs)
}

// IsAdmin implements repository.AccountRepository.
func (r *AccountRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	recs, err := r.client.Select(ctx, store.Admins, store.Where(store.Eq("user_id", userID)).WithLimit(1))
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return len(recs) > 0, nil
}

// CredentialRepository implements repository.CredentialRepository.
type CredentialRepository struct {
	client store.Client
}

var _ repository.CredentialRepository = (*CredentialRepository)(nil)

// NewCredentialRepository creates a credential repository on client.
func NewCredentialRepository(client store.Client) *CredentialRepository {
	return &CredentialRepository{client: client}
}

// FindByEmail implements repository.CredentialRepository. Emails compare
// case-insensitively.
func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	email = normalizeEmail(email)
	recs, err := r.client.Select(ctx, store.Credentials, store.Where(store.Eq("email", email)).WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if len(recs) == 0 {
		return nil, apperrors.NotFound("credential", email)
	}
	return decode[domain.Credential](recs[0])
}

// Insert implements repository.CredentialRepository.
func (r *CredentialRepository) Insert(ctx context.Context, c *domain.Credential) (*domain.Credential, error) {
	row := *c
	row.Email = normalizeEmail(row.Email)

	if _, err := r.FindByEmail(ctx, row.Email); err == nil {
		return nil, apperrors.AlreadyExists("account", "email", row.Email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	stamp(&row.ID, &row.CreatedAt)
	rec, err := encode(row)
	if err != nil {
		return nil, err
	}
	out, err := r.client.Insert(ctx, store.Credentials, rec)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.AlreadyExists("account", "email", row.Email)
		}
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return decode[domain.Credential](out)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
