package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bidzilla/bidzilla-web/pkg/apperrors"
	"github.com/bidzilla/bidzilla-web/pkg/jsonutil"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is the backend's "message" field, or empty when it sent none.
	Message string
}

// newAPIError reads "message", then "error", then "errors" from body. Any of
// them may be a string or a list of validation failures.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, field := range []json.RawMessage{payload.Message, payload.Error, payload.Errors} {
			if msg = jsonutil.FlexibleString(field); msg != "" {
				break
			}
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Unwrap maps well-known statuses onto the application sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ErrValidation
	}
	return nil
}

// IsRetryable reports whether repeating the request may succeed.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Message returns the backend-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// ErrorMessage is like Message but falls back to the status text when the
// backend answered without a message, for places that show
// "<prefix>: <reason>". Transport errors get fallback; their text names the
// backend address and must not reach the browser.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return http.StatusText(apiErr.StatusCode)
	}
	return fallback
}

// StatusCode returns the backend status carried by err, or 0 when the
// backend never answered.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
