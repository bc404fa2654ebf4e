package docsearch

import "github.com/kailas-cloud/docsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidationFailed   = domain.ErrValidationFailed
	ErrTenantRequired     = domain.ErrTenantRequired
	ErrQuotaExceeded      = domain.ErrQuotaExceeded
	ErrDocumentNotFound   = domain.ErrDocumentNotFound
	ErrBackendUnavailable = domain.ErrBackendUnavailable
)

// QuotaExceededError carries the limit and retry delay of a rejected call.
type QuotaExceededError = domain.QuotaExceededError
