// Package tenant holds the tenant identity that isolates documents and quotas.
package tenant

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Header is the request header carrying the tenant identifier.
const Header = "X-Tenant-Id"

// reserved is the backend key separator; it may not appear in a tenant identifier.
const reserved = ":"

// ID is an opaque tenant identifier. There is no registry of tenants:
// any non-empty value is accepted.
type ID string

// Parse validates a raw tenant identifier.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return "", fmt.Errorf("missing tenant header %s: %w", Header, domain.ErrTenantRequired)
	}
	if strings.Contains(raw, reserved) {
		return "", fmt.Errorf("tenant identifier must not contain %q: %w", reserved, domain.ErrTenantRequired)
	}
	return ID(raw), nil
}

// String returns the raw identifier.
func (id ID) String() string { return string(id) }
