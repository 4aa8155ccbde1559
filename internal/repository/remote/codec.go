// Package remote implements the repositories on top of a store.Client.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// encode turns a typed row into a store record through its json tags.
// Zero-valued optional fields are dropped so backend defaults apply.
func encode(v any) (store.Record, error) {
	if err := validator.Validate(v); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec store.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return rec, nil
}

// decode maps a store record onto T.
func decode[T any](rec store.Record) (*T, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &out, nil
}

// decodeAll maps records onto a slice of T, never returning nil.
func decodeAll[T any](recs []store.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// stamp fills an empty id and zero created_at. Every backend then stores the
// same values the caller sees.
func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

// lookupError reports a failed select as a store failure. Callers branch on
// ErrNotFound for "no row", so a backend error must never read as one.
func lookupError(op string, err error) error {
	if errors.Is(err, apperrors.ErrRemoteStore) {
		return err
	}
	return apperrors.RemoteStore(op, err)
}
