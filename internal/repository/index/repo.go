// Package index manages the document index lifecycle.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
)

// store is the consumer interface for index management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/index.Repository.
type Repo struct {
	store store
	def   *db.IndexDefinition
}

// Definition returns the document index definition: exact-match tenant and
// docId, analyzed title and content, and a createdAt date.
func Definition(name string, shards, replicas int) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(name).
		Shards(shards).
		Replicas(replicas).
		Keyword(domdoc.FieldTenant).
		Keyword(domdoc.FieldDocID).
		Text(domdoc.FieldTitle).
		Text(domdoc.FieldContent).
		Date(domdoc.FieldCreatedAt).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index definition: %w", err)
	}
	return def, nil
}

// New creates an index repository for def.
func New(s store, def *db.IndexDefinition) *Repo {
	return &Repo{store: s, def: def}
}

// Name returns the managed index name.
func (r *Repo) Name() string { return r.def.Name }

// Ensure creates the index if it is missing. Returns true when this call
// created it; losing a creation race to another process counts as success.
func (r *Repo) Ensure(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.def.Name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w: %w", r.def.Name, domain.ErrBackendUnavailable, err)
	}
	if exists {
		return false, nil
	}

	if err := r.store.CreateIndex(ctx, r.def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w: %w", r.def.Name, domain.ErrBackendUnavailable, err)
	}
	return true, nil
}
