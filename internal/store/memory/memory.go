// Package memory is an in-process store backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/store"
)

// primaryKeys maps collections whose key column is not "id".
var primaryKeys = map[string]string{
	store.Products: "product_id",
	store.Admins:   "user_id",
}

// PrimaryKey returns the key column of collection.
func PrimaryKey(collection string) string {
	if k, ok := primaryKeys[collection]; ok {
		return k
	}
	return "id"
}

// Store keeps collections in maps guarded by a single mutex. Rows keep
// insertion order so unordered selects are stable.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.Record
}

// New creates an empty Store.
func New() *Store {
	return &Store{collections: make(map[string][]store.Record)}
}

var _ store.Client = (*Store)(nil)

// Select implements store.Client.
func (s *Store) Select(ctx context.Context, collection string, q store.Query) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []store.Record
	for _, rec := range s.collections[collection] {
		if matches(rec, q.Filters) {
			out = append(out, clone(rec))
		}
	}
	s.mu.RUnlock()

	if q.Order != nil {
		col, desc := q.Order.Column, q.Order.Desc
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][col], out[j][col])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Insert implements store.Client. A missing key column gets a fresh uuid.
func (s *Store) Insert(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := clone(rec)
	key := PrimaryKey(collection)
	if v, ok := row[key]; !ok || v == nil || v == "" {
		row[key] = uuid.NewString()
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.collections[collection] {
		if fmt.Sprint(existing[key]) == fmt.Sprint(row[key]) {
			return nil, fmt.Errorf("insert %s: duplicate key %s=%v", collection, key, row[key])
		}
	}
	s.collections[collection] = append(s.collections[collection], row)
	return clone(row), nil
}

// Update implements store.Client.
func (s *Store) Update(ctx context.Context, collection string, patch store.Record, filters ...store.Filter) ([]store.Record, error) {
	if err := store.RequireFilters("update", collection, filters); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Record
	for _, rec := range s.collections[collection] {
		if !matches(rec, filters) {
			continue
		}
		for k, v := range patch {
			rec[k] = v
		}
		out = append(out, clone(rec))
	}
	return out, nil
}

// Delete implements store.Client.
func (s *Store) Delete(ctx context.Context, collection string, filters ...store.Filter) (int, error) {
	if err := store.RequireFilters("delete", collection, filters); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.collections[collection]
	kept := rows[:0]
	removed := 0
	for _, rec := range rows {
		if matches(rec, filters) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.collections[collection] = kept
	return removed, nil
}

// Ping implements store.Client.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of rows in collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func matches(rec store.Record, filters []store.Filter) bool {
	for _, f := range filters {
		v := rec[f.Column]
		switch f.Op {
		case store.OpEq:
			if compare(v, f.Value) != 0 {
				return false
			}
		case store.OpNeq:
			if compare(v, f.Value) == 0 {
				return false
			}
		case store.OpIn:
			if !containsString(toStrings(f.Value), fmt.Sprint(v)) {
				return false
			}
		case store.OpContains:
			have := toStrings(v)
			for _, want := range toStrings(f.Value) {
				if !containsString(have, want) {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

// compare orders values of the kinds records hold: numbers, decimals,
// timestamps (as time.Time or RFC 3339 text), bools and strings.
func compare(a, b any) int {
	if da, ok := asDecimal(a); ok {
		if db, ok := asDecimal(b); ok {
			return da.Cmp(db)
		}
	}
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

func toStrings(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, len(vs))
		for i, x := range vs {
			out[i] = fmt.Sprint(x)
		}
		return out
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(vs)}
	}
}

func containsString(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func clone(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		if vs, ok := v.([]any); ok {
			v = append([]any(nil), vs...)
		}
		out[k] = v
	}
	return out
}
