// Package postgres implements the store directly on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// schema lists the columns each collection accepts. Column names reach the
// SQL text only after being checked against it.
var schema = map[string][]string{
	store.Products:      {"product_id", "name", "description", "price", "image_url", "category", "tag", "tags", "created_at"},
	store.Cart:          {"id", "user_id", "product_id", "quantity", "created_at"},
	store.Wishlist:      {"id", "user_id", "product_id", "created_at"},
	store.Notifications: {"id", "user_id", "title", "message", "is_read", "created_at"},
	store.Orders:        {"id", "user_id", "total_amount", "status", "created_at"},
	store.Profiles:      {"id", "name", "age", "gender", "email", "created_at"},
	store.Addresses:     {"id", "user_id", "address_line_1", "address_line_2", "city", "state", "postal_code", "country", "is_default", "created_at"},
	store.Admins:        {"user_id"},
	store.Credentials:   {"id", "email", "password_hash", "created_at"},
}

// Store implements store.Client over a pgx pool.
type Store struct {
	db     database.DBTX
	tracer database.QueryTracer
}

var _ store.Client = (*Store)(nil)

// New creates a Store on db.
func New(db database.DBTX, tracer database.QueryTracer) *Store {
	return &Store{db: db, tracer: tracer}
}

// Select implements store.Client.
func (s *Store) Select(ctx context.Context, collection string, q store.Query) (recs []store.Record, err error) {
	if err := checkColumns(collection, nil); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(collection)

	args, err := writeWhere(&b, collection, q.Filters, 0)
	if err != nil {
		return nil, err
	}
	if q.Order != nil {
		if err := checkColumns(collection, []string{q.Order.Column}); err != nil {
			return nil, err
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(q.Order.Column)
		if q.Order.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	sql := b.String()

	ctx, end := s.tracer.Start(ctx, "select", collection, sql)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	return collect(collection, rows)
}

// Insert implements store.Client.
func (s *Store) Insert(ctx context.Context, collection string, rec store.Record) (out store.Record, err error) {
	cols := make([]string, 0, len(rec))
	for c := range rec {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	if err := checkColumns(collection, cols); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("insert %s: empty record", collection)
	}

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = rec[c]
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		collection, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	ctx, end := s.tracer.Start(ctx, "insert", collection, sql)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("insert", collection, err)
	}
	recs, err := collect(collection, rows)
	if err != nil {
		return nil, mapError("insert", collection, err)
	}
	if len(recs) != 1 {
		return nil, fmt.Errorf("insert %s: expected 1 row back, got %d", collection, len(recs))
	}
	return recs[0], nil
}

// Update implements store.Client.
func (s *Store) Update(ctx context.Context, collection string, patch store.Record, filters ...store.Filter) (recs []store.Record, err error) {
	if err := store.RequireFilters("update", collection, filters); err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(patch))
	for c := range patch {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	if err := checkColumns(collection, cols); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("update %s: empty patch", collection)
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(collection)
	b.WriteString(" SET ")
	args := make([]any, 0, len(cols)+len(filters))
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, patch[c])
		fmt.Fprintf(&b, "%s = $%d", c, len(args))
	}
	whereArgs, err := writeWhere(&b, collection, filters, len(args))
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)
	b.WriteString(" RETURNING *")
	sql := b.String()

	ctx, end := s.tracer.Start(ctx, "update", collection, sql)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("update", collection, err)
	}
	return collect(collection, rows)
}

// Delete implements store.Client.
func (s *Store) Delete(ctx context.Context, collection string, filters ...store.Filter) (n int, err error) {
	if err := store.RequireFilters("delete", collection, filters); err != nil {
		return 0, err
	}
	if err := checkColumns(collection, nil); err != nil {
		return 0, err
	}

	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(collection)
	args, err := writeWhere(&b, collection, filters, 0)
	if err != nil {
		return 0, err
	}
	sql := b.String()

	ctx, end := s.tracer.Start(ctx, "delete", collection, sql)
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapError("delete", collection, err)
	}
	return int(tag.RowsAffected()), nil
}

// Ping runs a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func writeWhere(b *strings.Builder, collection string, filters []store.Filter, offset int) ([]any, error) {
	args := make([]any, 0, len(filters))
	for i, f := range filters {
		if err := checkColumns(collection, []string{f.Column}); err != nil {
			return nil, err
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}

		args = append(args, f.Value)
		n := offset + len(args)
		switch f.Op {
		case store.OpEq:
			fmt.Fprintf(b, "%s = $%d", f.Column, n)
		case store.OpNeq:
			fmt.Fprintf(b, "%s <> $%d", f.Column, n)
		case store.OpIn:
			fmt.Fprintf(b, "%s = ANY($%d)", f.Column, n)
		case store.OpContains:
			fmt.Fprintf(b, "%s @> $%d", f.Column, n)
		default:
			return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	return args, nil
}

func checkColumns(collection string, cols []string) error {
	allowed, ok := schema[collection]
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	for _, c := range cols {
		found := false
		for _, a := range allowed {
			if a == c {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown column %q in %s", c, collection)
		}
	}
	return nil
}

func collect(collection string, rows pgx.Rows) ([]store.Record, error) {
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	out := make([]store.Record, len(maps))
	for i, m := range maps {
		out[i] = normalize(m)
	}
	return out, nil
}

// normalize converts pgx driver values into the plain forms the other
// backends produce: uuids become strings and numerics become decimals.
func normalize(m map[string]any) store.Record {
	rec := make(store.Record, len(m))
	for k, v := range m {
		switch x := v.(type) {
		case [16]byte:
			rec[k] = uuid.UUID(x).String()
		case pgtype.Numeric:
			rec[k] = numericToDecimal(x)
		default:
			rec[k] = v
		}
	}
	return rec
}

func numericToDecimal(n pgtype.Numeric) any {
	if !n.Valid {
		return nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func mapError(op, collection string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperrors.Conflict(fmt.Sprintf("%s %s: %s", op, collection, pgErr.Message))
		case "23503", "23514", "22P02":
			return apperrors.InvalidInput(fmt.Sprintf("%s %s: %s", op, collection, pgErr.Message))
		}
	}
	return fmt.Errorf("%s %s: %w", op, collection, err)
}
