package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
)

// store is the consumer interface for search (ISP).
type store interface {
	Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
	index string
}

// New creates a search repository over the given index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// Search runs a tenant-scoped full-text query. Hits keep backend order and
// carry tenant-local document ids.
func (r *Repo) Search(ctx context.Context, q query.Query) (result.Result, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return result.Result{}, fmt.Errorf("marshal query: %w", err)
	}

	res, err := r.store.Search(ctx, r.index, body)
	if err != nil {
		return result.Result{}, fmt.Errorf("search %s: %w: %w", r.index, domain.ErrBackendUnavailable, err)
	}

	hits := make([]result.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		var source map[string]any
		if len(e.Source) > 0 {
			if err := json.Unmarshal(e.Source, &source); err != nil {
				source = nil
			}
		}
		hits = append(hits, result.NewHit(domdoc.DecodeKey(e.Key), e.Score, source))
	}

	return result.New(hits, res.Total, res.Took), nil
}
