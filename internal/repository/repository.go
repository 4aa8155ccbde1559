package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductQuery narrows a product listing. Zero values mean "no constraint".
type ProductQuery struct {
	Category    string
	NewestFirst bool
	Limit       int
}

// ProductRepository reads the catalog.
type ProductRepository interface {
	// List returns products matching q.
	List(ctx context.Context, q ProductQuery) ([]domain.Product, error)
	// GetByID returns a product or apperrors.ErrNotFound.
	GetByID(ctx context.Context, productID string) (*domain.Product, error)
	// ListByIDs returns the products among ids that exist, in no particular order.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	// Related returns up to limit other products that share p's category or
	// carry all of p's tags.
	Related(ctx context.Context, p *domain.Product, limit int) ([]domain.Product, error)
}

// CartRepository persists cart lines. Every method is scoped to one user.
type CartRepository interface {
	// FindByProduct returns the user's line for productID or apperrors.ErrNotFound.
	FindByProduct(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	// ListByUser returns the user's lines, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
	// Insert stores a new line, assigning its id and created_at when empty.
	Insert(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error)
	// SetQuantity updates a line or returns apperrors.ErrNotFound.
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error)
	// Delete removes a line or returns apperrors.ErrNotFound.
	Delete(ctx context.Context, userID, lineID string) error
}

// WishlistRepository persists wishlist entries. Every method is scoped to one user.
type WishlistRepository interface {
	// Exists reports whether the user has productID wishlisted.
	Exists(ctx context.Context, userID, productID string) (bool, error)
	// GetByID returns an entry or apperrors.ErrNotFound.
	GetByID(ctx context.Context, userID, entryID string) (*domain.WishlistEntry, error)
	// ListByUser returns the user's entries, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
	// Insert stores a new entry, assigning its id and created_at when empty.
	Insert(ctx context.Context, entry *domain.WishlistEntry) (*domain.WishlistEntry, error)
	// DeleteByProduct removes every entry for productID and returns how many.
	DeleteByProduct(ctx context.Context, userID, productID string) (int, error)
	// Delete removes an entry or returns apperrors.ErrNotFound.
	Delete(ctx context.Context, userID, entryID string) error
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
	// Insert stores a notification with is_read false.
	Insert(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	// MarkRead sets is_read or returns apperrors.ErrNotFound.
	MarkRead(ctx context.Context, userID, id string) error
	// Delete removes a notification or returns apperrors.ErrNotFound.
	Delete(ctx context.Context, userID, id string) error
}

// AccountRepository reads and creates account records.
type AccountRepository interface {
	// GetProfile returns the profile or apperrors.ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	// CreateProfile stores the profile created at sign-up.
	CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	// ListAddresses returns the user's addresses.
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	// ListOrders returns the user's orders, newest first.
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	// IsAdmin reports whether the user is listed in admins.
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// CredentialRepository stores password hashes.
type CredentialRepository interface {
	// FindByEmail returns the credential or apperrors.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	// Insert stores a credential or returns apperrors.ErrAlreadyExists.
	Insert(ctx context.Context, c *domain.Credential) (*domain.Credential, error)
}
