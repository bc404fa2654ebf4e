package docsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// SearchService runs full-text queries restricted to a single tenant.
type SearchService struct {
	tenant string
	svc    searchUseCase
	obs    *observer
}

// Query matches text against title and content, title weighted higher.
// A size of zero or less uses the default page size.
func (s *SearchService) Query(ctx context.Context, text string, size int) (_ SearchResults, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", start, err) }()

	t, err := tenant.Parse(s.tenant)
	if err != nil {
		return SearchResults{}, fmt.Errorf("search: %w", err)
	}
	res, err := s.svc.Search(ctx, t, text, size)
	if err != nil {
		return SearchResults{}, fmt.Errorf("search: %w", err)
	}

	hits := res.Hits()
	out := make([]SearchHit, len(hits))
	for i := range hits {
		out[i] = SearchHit{
			ID:     hits[i].DocID(),
			Score:  hits[i].Score(),
			Source: hits[i].Source(),
		}
	}
	return SearchResults{Hits: out, Total: res.Total(), Took: res.Took()}, nil
}
