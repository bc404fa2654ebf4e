package document

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// Service handles tenant-scoped document writes, reads and deletes.
// Every call is admitted against the tenant's quota before validation and
// before any backend access.
type Service struct {
	repo  Repository
	admit Admitter
	clock func() time.Time
}

// New creates a document service.
func New(repo Repository, admit Admitter) *Service {
	return &Service{repo: repo, admit: admit, clock: time.Now}
}

// WithClock overrides the clock used to stamp createdAt.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Create validates and stores a document, replacing any previous version
// with the same id for the tenant.
func (s *Service) Create(ctx context.Context, t tenant.ID, id, title, content string) (domdoc.Document, error) {
	if err := s.admitTenant(ctx, t); err != nil {
		return domdoc.Document{}, err
	}

	doc, err := domdoc.New(t, id, title, content, s.clock())
	if err != nil {
		return domdoc.Document{}, err
	}

	if err := s.repo.Put(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("put document: %w", err)
	}
	return doc, nil
}

// Get returns the tenant's document.
func (s *Service) Get(ctx context.Context, t tenant.ID, id string) (domdoc.Document, error) {
	if err := s.admitTenant(ctx, t); err != nil {
		return domdoc.Document{}, err
	}
	if id == "" {
		return domdoc.Document{}, fmt.Errorf("document id is required: %w", domain.ErrValidationFailed)
	}

	doc, err := s.repo.Get(ctx, t, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes the tenant's document.
func (s *Service) Delete(ctx context.Context, t tenant.ID, id string) error {
	if err := s.admitTenant(ctx, t); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrValidationFailed)
	}

	if err := s.repo.Delete(ctx, t, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Service) admitTenant(ctx context.Context, t tenant.ID) error {
	if t == "" {
		return fmt.Errorf("missing tenant: %w", domain.ErrTenantRequired)
	}
	return s.admit.Admit(ctx, t).Err()
}
