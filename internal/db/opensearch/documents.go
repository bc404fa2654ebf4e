package opensearch

import (
	"bytes"
	"context"
	"net/http"

	osgo "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/docsearch/internal/db"
)

// PutDocument creates or replaces the document stored under key.
func (s *Store) PutDocument(ctx context.Context, index, key string, body []byte) error {
	_, err := s.call(ctx, db.OpPutDoc, func(ctx context.Context) (*osgo.Response, error) {
		res, err := s.api.Index(ctx, opensearchapi.IndexReq{
			Index:      index,
			DocumentID: docID(key),
			Body:       bytes.NewReader(body),
			Params:     opensearchapi.IndexParams{Refresh: s.refresh},
		})
		if res == nil {
			return nil, err
		}
		return res.Inspect().Response, err
	})
	return err
}

// GetDocument returns the _source of the document stored under key.
func (s *Store) GetDocument(ctx context.Context, index, key string) ([]byte, error) {
	var found *opensearchapi.DocumentGetResp
	status, err := s.call(ctx, db.OpGetDoc, func(ctx context.Context) (*osgo.Response, error) {
		res, err := s.api.Document.Get(ctx, opensearchapi.DocumentGetReq{
			Index:      index,
			DocumentID: docID(key),
		})
		if res == nil {
			return nil, err
		}
		found = res
		return res.Inspect().Response, err
	})
	if status == http.StatusNotFound {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	if found == nil || !found.Found {
		return nil, db.ErrKeyNotFound
	}
	return found.Source, nil
}

// DeleteDocument removes the document stored under key.
func (s *Store) DeleteDocument(ctx context.Context, index, key string) error {
	status, err := s.call(ctx, db.OpDeleteDoc, func(ctx context.Context) (*osgo.Response, error) {
		res, err := s.api.Document.Delete(ctx, opensearchapi.DocumentDeleteReq{
			Index:      index,
			DocumentID: docID(key),
			Params:     opensearchapi.DocumentDeleteParams{Refresh: s.refresh},
		})
		if res == nil {
			return nil, err
		}
		return res.Inspect().Response, err
	})
	if status == http.StatusNotFound {
		return db.ErrKeyNotFound
	}
	return err
}
