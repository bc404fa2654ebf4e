package usage

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	"github.com/kailas-cloud/docsearch/internal/usecase/quota"
)

// WindowReader provides read-only access to the in-process quota state.
type WindowReader interface {
	Snapshot(t tenant.ID) quota.Snapshot
}

// CounterReader reads persisted per-window decision counters.
type CounterReader interface {
	Counts(ctx context.Context, t tenant.ID, window int64) (allowed, rejected int64, err error)
}
