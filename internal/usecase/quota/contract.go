package quota

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// UsageRecorder persists admission outcomes per tenant and window.
// Implementations may be slow; the Limiter treats failures as best-effort.
type UsageRecorder interface {
	Record(ctx context.Context, t tenant.ID, window int64, allowed bool) error
}
