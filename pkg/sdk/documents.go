package docsearch

import (
	"context"
	"fmt"
	"time"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// DocumentService manages the documents of a single tenant.
type DocumentService struct {
	tenant string
	svc    documentUseCase
	obs    *observer
}

// Create stores a document, replacing any previous version with the same ID.
func (s *DocumentService) Create(ctx context.Context, id, title, content string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("documents.create", start, err) }()

	t, err := tenant.Parse(s.tenant)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	d, err := s.svc.Create(ctx, t, id, title, content)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("documents.get", start, err) }()

	t, err := tenant.Parse(s.tenant)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	d, err := s.svc.Get(ctx, t, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Delete removes a document by ID.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("documents.delete", start, err) }()

	t, err := tenant.Parse(s.tenant)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err = s.svc.Delete(ctx, t, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func fromInternalDocument(d domdoc.Document) Document {
	return Document{
		ID:        d.ID(),
		Title:     d.Title(),
		Content:   d.Content(),
		CreatedAt: d.CreatedAt(),
	}
}
