package document

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// Stored field names shared by the index mapping, the repository and search queries.
const (
	FieldTenant    = "tenant"
	FieldDocID     = "docId"
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldCreatedAt = "createdAt"
)

// Document is the document aggregate (immutable value object).
type Document struct {
	tenant    tenant.ID
	id        string
	title     string
	content   string
	createdAt time.Time
}

// New validates and creates a Document stamped with createdAt (stored as UTC).
// ID, title and content are all required.
func New(t tenant.ID, id, title, content string, createdAt time.Time) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document id is required: %w", domain.ErrValidationFailed)
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required: %w", domain.ErrValidationFailed)
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required: %w", domain.ErrValidationFailed)
	}

	return Document{
		tenant:    t,
		id:        id,
		title:     title,
		content:   content,
		createdAt: createdAt.UTC(),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(t tenant.ID, id, title, content string, createdAt time.Time) Document {
	return Document{tenant: t, id: id, title: title, content: content, createdAt: createdAt}
}

// Tenant returns the owning tenant.
func (d *Document) Tenant() tenant.ID { return d.tenant }

// ID returns the tenant-local document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document body.
func (d *Document) Content() string { return d.content }

// CreatedAt returns the creation timestamp.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// Key returns the backend storage key for the document.
func (d *Document) Key() string { return EncodeKey(d.tenant, d.id) }
