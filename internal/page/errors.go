package page

import (
	"errors"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// errorMessage is the text shown on a form for err.
func errorMessage(err error) string {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong, please try again"
}
