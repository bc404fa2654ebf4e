package db

import (
	"encoding/json"
	"time"
)

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int64
	Took    time.Duration
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Source json.RawMessage
}
