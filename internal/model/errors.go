package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrCartInvalid    = errors.New("cart invalid")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewUnauthorizedError creates a 401 error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewCartError creates a 409 error for carts that cannot be ordered.
func NewCartError(reason string) *APIError {
	return &APIError{
		Code:       "CART_INVALID",
		Message:    reason,
		StatusCode: 409,
		Err:        ErrCartInvalid,
	}
}

// NewUpstreamError creates a 502 error for backend failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
func NewRateLimitError(service string) *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}

// StoreError is the error envelope the Shopware Store API returns for
// non-2xx responses: {"errors": [{"status", "code", "title", "detail"}]}.
type StoreError struct {
	StatusCode int                `json:"-"`
	Errors     []StoreErrorDetail `json:"errors"`
}

// StoreErrorDetail is a single entry of a Store API error envelope.
type StoreErrorDetail struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *StoreError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("store api error (status %d)", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		if d.Detail != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", d.Code, d.Detail))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", d.Code, d.Title))
		}
	}
	return fmt.Sprintf("store api error (status %d): %s", e.StatusCode, strings.Join(parts, "; "))
}

// HasCode reports whether any entry of the envelope carries the given
// Shopware error code (e.g. "CHECKOUT__CART_EMPTY").
func (e *StoreError) HasCode(code string) bool {
	for _, d := range e.Errors {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Detail returns the first human-readable message of the envelope.
func (e *StoreError) Detail() string {
	for _, d := range e.Errors {
		if d.Detail != "" {
			return d.Detail
		}
		if d.Title != "" {
			return d.Title
		}
	}
	return ""
}
