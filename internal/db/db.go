package db

import (
	"context"
	"time"
)

// Store is the search backend facade combining all sub-interfaces.
type Store interface {
	Pinger
	DocumentStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentStore provides JSON document operations addressed by key.
type DocumentStore interface {
	// PutDocument creates or replaces the document at key.
	PutDocument(ctx context.Context, index, key string, body []byte) error
	// GetDocument returns the stored source; ErrKeyNotFound when absent.
	GetDocument(ctx context.Context, index, key string) ([]byte, error)
	// DeleteDocument removes the document; ErrKeyNotFound when absent.
	DeleteDocument(ctx context.Context, index, key string) error
}

// CounterStore keeps expiring integer counters.
type CounterStore interface {
	// IncrWithTTL adds delta to key and returns the new value. ttl is applied
	// only while the key has no expiry, so repeated increments do not extend it.
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	// Counters returns the values of keys in order; missing keys read as 0.
	Counters(ctx context.Context, keys ...string) ([]int64, error)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher executes a prepared query body against an index.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*SearchResult, error)
}
