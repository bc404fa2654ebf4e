package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// Service handles tenant-scoped full-text search.
type Service struct {
	repo  Repository
	admit Admitter
}

// New creates a search service.
func New(repo Repository, admit Admitter) *Service {
	return &Service{repo: repo, admit: admit}
}

// Search runs a full-text query over the tenant's documents.
// A non-positive size falls back to the default page size.
func (s *Service) Search(ctx context.Context, t tenant.ID, text string, size int) (result.Result, error) {
	if t == "" {
		return result.Result{}, fmt.Errorf("missing tenant: %w", domain.ErrTenantRequired)
	}
	if err := s.admit.Admit(ctx, t).Err(); err != nil {
		return result.Result{}, err
	}

	q, err := query.Build(t, text, size)
	if err != nil {
		return result.Result{}, err
	}

	res, err := s.repo.Search(ctx, q)
	if err != nil {
		return result.Result{}, fmt.Errorf("search: %w", err)
	}
	return res, nil
}
