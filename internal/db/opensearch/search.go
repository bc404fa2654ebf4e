package opensearch

import (
	"bytes"
	"context"
	"net/http"
	"time"

	osgo "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/docsearch/internal/db"
)

// Search runs a query body against the index.
func (s *Store) Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error) {
	var resp *opensearchapi.SearchResp
	status, err := s.call(ctx, db.OpSearch, func(ctx context.Context) (*osgo.Response, error) {
		res, err := s.api.Search(ctx, &opensearchapi.SearchReq{
			Indices: []string{index},
			Body:    bytes.NewReader(body),
		})
		if res == nil {
			return nil, err
		}
		resp = res
		return res.Inspect().Response, err
	})
	if status == http.StatusNotFound {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	if err != nil {
		return nil, err
	}
	return toSearchResult(resp), nil
}

func toSearchResult(resp *opensearchapi.SearchResp) *db.SearchResult {
	if resp == nil {
		return &db.SearchResult{Entries: []db.SearchEntry{}}
	}
	res := &db.SearchResult{
		Total:   int64(resp.Hits.Total.Value),
		Took:    time.Duration(resp.Took) * time.Millisecond,
		Entries: make([]db.SearchEntry, 0, len(resp.Hits.Hits)),
	}
	for _, h := range resp.Hits.Hits {
		res.Entries = append(res.Entries, db.SearchEntry{
			Key:    h.ID,
			Score:  float64(h.Score),
			Source: h.Source,
		})
	}
	return res
}
