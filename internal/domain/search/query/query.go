// Package query builds tenant-scoped full-text search queries.
package query

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// Search parameter limits.
const (
	DefaultSize = 10
	MaxSize     = 100
	// TitleBoost weights title matches over content matches (content is 1).
	TitleBoost = 3
)

// Query is a validated full-text query restricted to one tenant.
type Query struct {
	tenant tenant.ID
	text   string
	size   int
}

// Build validates the query text and normalizes size: non-positive -> DefaultSize,
// above MaxSize -> MaxSize.
func Build(t tenant.ID, text string, size int) (Query, error) {
	if text == "" {
		return Query{}, fmt.Errorf("query text is required: %w", domain.ErrValidationFailed)
	}
	if t == "" {
		return Query{}, fmt.Errorf("query tenant is required: %w", domain.ErrTenantRequired)
	}

	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return Query{tenant: t, text: text, size: size}, nil
}

// Tenant returns the tenant the results are restricted to.
func (q Query) Tenant() tenant.ID { return q.tenant }

// Text returns the free-text query.
func (q Query) Text() string { return q.text }

// Size returns the maximum number of hits.
func (q Query) Size() int { return q.size }

// Fields returns the boosted match fields in backend notation.
func (q Query) Fields() []string {
	return []string{
		document.FieldTitle + "^" + strconv.Itoa(TitleBoost),
		document.FieldContent,
	}
}

type dsl struct {
	Size  int      `json:"size"`
	Query dslQuery `json:"query"`
}

type dslQuery struct {
	Bool dslBool `json:"bool"`
}

type dslBool struct {
	Must   dslMust   `json:"must"`
	Filter dslFilter `json:"filter"`
}

type dslMust struct {
	MultiMatch dslMultiMatch `json:"multi_match"`
}

type dslMultiMatch struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
}

type dslFilter struct {
	Term map[string]string `json:"term"`
}

// MarshalJSON renders the query as a search DSL body: a boosted multi_match
// intersected with an exact tenant term filter.
func (q Query) MarshalJSON() ([]byte, error) {
	body := dsl{
		Size: q.size,
		Query: dslQuery{Bool: dslBool{
			Must: dslMust{MultiMatch: dslMultiMatch{
				Query:  q.text,
				Fields: q.Fields(),
			}},
			Filter: dslFilter{Term: map[string]string{
				document.FieldTenant: string(q.tenant),
			}},
		}},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	return data, nil
}
