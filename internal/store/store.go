// Package store defines the contract of the remote data store: named
// collections of flat records queried with simple column filters.
package store

import (
	"context"
	"fmt"
)

// Collection names.
const (
	Products      = "products"
	Cart          = "cart"
	Wishlist      = "wishlist"
	Notifications = "notifications"
	Orders        = "orders"
	Profiles      = "profiles"
	Addresses     = "addresses"
	Admins        = "admins"
	Credentials   = "credentials"
)

// Record is one row of a collection, keyed by column name.
type Record map[string]any

// Op is a filter operator.
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpIn       Op = "in"
	OpContains Op = "cs" // array column contains every given element
)

// Filter restricts a query to rows where Column Op Value holds.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches rows whose column equals v.
func Eq(column string, v any) Filter { return Filter{Column: column, Op: OpEq, Value: v} }

// Neq matches rows whose column differs from v.
func Neq(column string, v any) Filter { return Filter{Column: column, Op: OpNeq, Value: v} }

// In matches rows whose column is one of vs.
func In(column string, vs []string) Filter { return Filter{Column: column, Op: OpIn, Value: vs} }

// Contains matches rows whose array column holds every element of vs.
func Contains(column string, vs []string) Filter {
	return Filter{Column: column, Op: OpContains, Value: vs}
}

// Order sorts results by Column.
type Order struct {
	Column string
	Desc   bool
}

// Query selects rows. All filters must hold. A zero Limit means no limit.
type Query struct {
	Filters []Filter
	Order   *Order
	Limit   int
}

// Where returns a query with the given filters.
func Where(filters ...Filter) Query {
	return Query{Filters: filters}
}

// OrderBy returns q sorted by column.
func (q Query) OrderBy(column string, desc bool) Query {
	q.Order = &Order{Column: column, Desc: desc}
	return q
}

// WithLimit returns q capped at n rows.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Client is the remote store. Every method is a single remote call and is
// never retried by the client itself.
type Client interface {
	// Select returns the rows matching q.
	Select(ctx context.Context, collection string, q Query) ([]Record, error)

	// Insert stores rec and returns the stored row.
	Insert(ctx context.Context, collection string, rec Record) (Record, error)

	// Update applies patch to every row matching filters and returns the
	// updated rows. At least one filter is required.
	Update(ctx context.Context, collection string, patch Record, filters ...Filter) ([]Record, error)

	// Delete removes every row matching filters and returns how many were
	// removed. At least one filter is required.
	Delete(ctx context.Context, collection string, filters ...Filter) (int, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// RequireFilters rejects unfiltered updates and deletes.
func RequireFilters(op, collection string, filters []Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("%s %s: refusing to touch every row without a filter", op, collection)
	}
	return nil
}
