package search

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, index string, body []byte) (*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return &db.SearchResult{}, nil
}
