package docsearch

import "time"

// Document is a stored document as seen by its tenant.
type Document struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
}

// SearchHit is a single search hit.
type SearchHit struct {
	ID     string
	Score  float64
	Source map[string]any
}

// SearchResults is a page of hits ordered by descending score.
type SearchResults struct {
	Hits  []SearchHit
	Total int64
	Took  time.Duration
}
