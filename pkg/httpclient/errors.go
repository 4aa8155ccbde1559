package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// upstreamError accepts both the flat error body of a PostgREST style
// backend ({"code","message","details","hint"}) and the enveloped
// {"error":{"code","message"}} form.
type upstreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// converts it into an error that keeps the status semantics. upstream names
// the remote side in messages.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err)
	}

	var ue upstreamError
	if json.Unmarshal(body, &ue) == nil {
		code, msg := ue.Code, ue.Message
		if ue.Error != nil {
			code, msg = ue.Error.Code, ue.Error.Message
		}
		if msg != "" {
			return mapStatus(resp.StatusCode, code, msg, upstream)
		}
	}

	return mapStatus(resp.StatusCode, "", string(body), upstream)
}

func mapStatus(status int, code, message, upstream string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: qualified,
			Status:  http.StatusServiceUnavailable,
			Err:     apperrors.ErrServiceUnavail,
		}
	case status >= 500:
		return fmt.Errorf("%s server error (%d %s): %s", upstream, status, code, message)
	default:
		return &apperrors.AppError{Code: "UPSTREAM_ERROR", Message: qualified, Status: status}
	}
}
