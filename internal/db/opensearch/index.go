package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	osgo "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/docsearch/internal/db"
)

const errTypeIndexExists = "resource_already_exists_exception"

// CreateIndex creates the index with the definition's mapping.
// Returns db.ErrIndexExists if the index is already there.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	body, err := Mapping(def)
	if err != nil {
		return err
	}

	status, err := s.call(ctx, db.OpCreateIndex, func(ctx context.Context) (*osgo.Response, error) {
		res, err := s.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
			Index: def.Name,
			Body:  bytes.NewReader(body),
		})
		if res == nil {
			return nil, err
		}
		return res.Inspect().Response, err
	})
	var se *db.StatusError
	if status == http.StatusBadRequest && errors.As(err, &se) && se.Type == errTypeIndexExists {
		return db.ErrIndexExists
	}
	return err
}

// IndexExists reports whether the index is present.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	status, err := s.call(ctx, db.OpIndexExists, func(ctx context.Context) (*osgo.Response, error) {
		return s.api.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{Indices: []string{name}})
	})
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type mappingBody struct {
	Settings *indexSettings `json:"settings,omitempty"`
	Mappings mappings       `json:"mappings"`
}

type indexSettings struct {
	Shards   int `json:"number_of_shards,omitempty"`
	Replicas int `json:"number_of_replicas,omitempty"`
}

type mappings struct {
	Properties map[string]property `json:"properties"`
}

type property struct {
	Type string `json:"type"`
}

// Mapping renders the create-index request body for def.
func Mapping(def *db.IndexDefinition) ([]byte, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index definition: %w", err)
	}

	body := mappingBody{Mappings: mappings{Properties: make(map[string]property, len(def.Fields))}}
	if def.Shards > 0 || def.Replicas > 0 {
		body.Settings = &indexSettings{Shards: def.Shards, Replicas: def.Replicas}
	}
	for _, f := range def.Fields {
		body.Mappings.Properties[f.Name] = property{Type: string(f.Type)}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal mapping: %w", err)
	}
	return data, nil
}
