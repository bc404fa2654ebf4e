package document

import (
	"context"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	"github.com/kailas-cloud/docsearch/internal/usecase/quota"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Put(ctx context.Context, doc *domdoc.Document) error
	Get(ctx context.Context, t tenant.ID, id string) (domdoc.Document, error)
	Delete(ctx context.Context, t tenant.ID, id string) error
}

// Admitter decides whether a tenant may make another request.
type Admitter interface {
	Admit(ctx context.Context, t tenant.ID) quota.Decision
}
