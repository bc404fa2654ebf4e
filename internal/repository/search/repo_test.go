package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
)

func TestSearch_MapsHits(t *testing.T) {
	var gotBody string
	s := &mockStore{
		searchFn: func(_ context.Context, index string, body []byte) (*db.SearchResult, error) {
			if index != "documents" {
				t.Errorf("index = %q", index)
			}
			gotBody = string(body)
			return &db.SearchResult{
				Total: 12,
				Took:  4 * time.Millisecond,
				Entries: []db.SearchEntry{
					{Key: "acme:d2", Score: 3.5, Source: json.RawMessage(`{"title":"invoice"}`)},
					{Key: "acme:with:colon", Score: 1},
					{Key: "legacy", Score: 0.5, Source: json.RawMessage(`not json`)},
				},
			}, nil
		},
	}
	repo := New(s, "documents")

	q, _ := query.Build("acme", "invoice", 3)
	res, err := repo.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gotBody, `"term":{"tenant":"acme"}`) {
		t.Errorf("query body missing tenant filter: %s", gotBody)
	}
	if res.Total() != 12 || res.Took() != 4*time.Millisecond {
		t.Errorf("total=%d took=%v", res.Total(), res.Took())
	}

	hits := res.Hits()
	if len(hits) != 3 {
		t.Fatalf("hits = %d, want 3", len(hits))
	}
	wantIDs := []string{"d2", "with:colon", "legacy"}
	for i, want := range wantIDs {
		if hits[i].DocID() != want {
			t.Errorf("hits[%d].DocID() = %q, want %q", i, hits[i].DocID(), want)
		}
	}
	if hits[0].Source()["title"] != "invoice" {
		t.Errorf("hits[0].Source() = %v", hits[0].Source())
	}
	if hits[2].Source() != nil {
		t.Errorf("undecodable source should be nil, got %v", hits[2].Source())
	}
}

func TestSearch_BackendError(t *testing.T) {
	s := &mockStore{
		searchFn: func(context.Context, string, []byte) (*db.SearchResult, error) {
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		},
	}
	repo := New(s, "documents")

	q, _ := query.Build("acme", "invoice", 0)
	_, err := repo.Search(context.Background(), q)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Error("expected underlying ErrIndexNotFound to be preserved")
	}
}
