package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity is the signed-in user as resolved by the session provider.
type Identity struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Profile is created on sign-up and keyed by the user id.
type Profile struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name"`
	Age       int       `json:"age,omitempty" validate:"gte=0,lte=150"`
	Gender    string    `json:"gender,omitempty"`
	Email     string    `json:"email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is a shipping address owned by a user.
type Address struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AddressLine1 string    `json:"address_line_1"`
	AddressLine2 string    `json:"address_line_2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

// Order is a read-only record of a past purchase.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Notification is a message addressed to one user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential holds the password hash for an account.
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"password_hash" validate:"required"`
	CreatedAt    time.Time `json:"created_at"`
}
