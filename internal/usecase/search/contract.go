package search

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	"github.com/kailas-cloud/docsearch/internal/usecase/quota"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(ctx context.Context, q query.Query) (result.Result, error)
}

// Admitter decides whether a tenant may make another request.
type Admitter interface {
	Admit(ctx context.Context, t tenant.ID) quota.Decision
}
