package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidationFailed signals a missing or malformed required field.
	ErrValidationFailed = errors.New("validation failed")
	// ErrTenantRequired signals a request without a usable tenant identity.
	ErrTenantRequired = errors.New("tenant required")
	// ErrQuotaExceeded signals that the tenant used up its request quota for the current window.
	ErrQuotaExceeded = errors.New("rate limit exceeded")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrBackendUnavailable signals a search backend failure: network error,
	// timeout or an unexpected status code.
	ErrBackendUnavailable = errors.New("search backend unavailable")
)

// QuotaExceededError wraps ErrQuotaExceeded with the admission details.
type QuotaExceededError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: limit %d per minute, retry after %s", ErrQuotaExceeded.Error(), e.Limit, e.RetryAfter)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// NewQuotaExceeded creates a quota error.
func NewQuotaExceeded(limit int, retryAfter time.Duration) error {
	return &QuotaExceededError{Limit: limit, RetryAfter: retryAfter}
}
