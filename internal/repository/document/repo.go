package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// store is the consumer interface for documents (ISP).
type store interface {
	PutDocument(ctx context.Context, index, key string, body []byte) error
	GetDocument(ctx context.Context, index, key string) ([]byte, error)
	DeleteDocument(ctx context.Context, index, key string) error
}

// Repo implements usecase/document.Repository.
type Repo struct {
	store store
	index string
}

// New creates a document repository over the given index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// Put creates or replaces a document at its tenant-scoped key.
func (r *Repo) Put(ctx context.Context, doc *domdoc.Document) error {
	key := doc.Key()
	data, err := json.Marshal(toStored(doc))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if err := r.store.PutDocument(ctx, r.index, key, data); err != nil {
		return fmt.Errorf("put %s: %w: %w", key, domain.ErrBackendUnavailable, err)
	}
	return nil
}

// Get returns the caller's document. A stored document owned by another
// tenant is reported as not found.
func (r *Repo) Get(ctx context.Context, t tenant.ID, id string) (domdoc.Document, error) {
	key := domdoc.EncodeKey(t, id)
	raw, err := r.store.GetDocument(ctx, r.index, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("get %s: %w: %w", key, domain.ErrBackendUnavailable, err)
	}

	var s storedDoc
	if err := json.Unmarshal(raw, &s); err != nil {
		return domdoc.Document{}, fmt.Errorf("decode %s: %w: %w", key, domain.ErrBackendUnavailable, err)
	}
	if s.Tenant != t.String() {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	if s.DocID == "" {
		s.DocID = id
	}
	return fromStored(s), nil
}

// Delete removes the caller's document.
func (r *Repo) Delete(ctx context.Context, t tenant.ID, id string) error {
	key := domdoc.EncodeKey(t, id)
	if err := r.store.DeleteDocument(ctx, r.index, key); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrDocumentNotFound
		}
		return fmt.Errorf("delete %s: %w: %w", key, domain.ErrBackendUnavailable, err)
	}
	return nil
}
