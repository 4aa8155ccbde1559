// Package service holds the storefront's application logic: line-item
// reconciliation, catalog reads, the inbox and the account page.
package service

import (
	"errors"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// requireIdentity guards every per-user operation before any store call.
func requireIdentity(id domain.Identity) error {
	if id.UserID == "" {
		return apperrors.Unauthenticated()
	}
	return nil
}

// storeError keeps classified errors and reports anything else as a failed
// remote store call named op. Auth and server errors from the store describe
// the service's own access, so they are reported as store failures too.
func storeError(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= 500 ||
			errors.Is(err, apperrors.ErrUnauthorized) ||
			errors.Is(err, apperrors.ErrForbidden) {
			if errors.Is(err, apperrors.ErrRemoteStore) {
				return err
			}
			return apperrors.RemoteStore(op, err)
		}
		return err
	}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return apperrors.RemoteStore(op, err)
}
