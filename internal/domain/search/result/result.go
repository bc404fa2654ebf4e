package result

import "time"

// Hit is a single search hit: the tenant-local document id, its relevance
// score and the stored document fields.
type Hit struct {
	docID  string
	score  float64
	source map[string]any
}

// NewHit creates a search hit.
func NewHit(docID string, score float64, source map[string]any) Hit {
	return Hit{docID: docID, score: score, source: source}
}

// DocID returns the tenant-local document identifier.
func (h *Hit) DocID() string { return h.docID }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// Source returns the stored document fields.
func (h *Hit) Source() map[string]any { return h.source }

// Result is a page of search hits ordered by descending score.
type Result struct {
	hits  []Hit
	total int64
	took  time.Duration
}

// New creates a search result.
func New(hits []Hit, total int64, took time.Duration) Result {
	return Result{hits: hits, total: total, took: took}
}

// Hits returns the hits in backend order.
func (r *Result) Hits() []Hit { return r.hits }

// Total returns the backend's total match count (may exceed len(Hits)).
func (r *Result) Total() int64 { return r.total }

// Took returns the backend-reported execution time.
func (r *Result) Took() time.Duration { return r.took }
