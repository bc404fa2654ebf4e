// Package quota persists per-tenant admission counters.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

const keyPrefix = "docsearch:usage:"

// Counter outcomes used in keys.
const (
	outcomeAllowed  = "allowed"
	outcomeRejected = "rejected"
)

// store is the consumer interface for counter operations (ISP).
type store interface {
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Counters(ctx context.Context, keys ...string) ([]int64, error)
}

// Store implements quota.UsageRecorder on expiring counters.
type Store struct {
	store store
	ttl   time.Duration
}

// New creates a usage counter store. ttl bounds how long a window's
// counters are retained (recommended: 24h).
func New(s store, ttl time.Duration) *Store {
	return &Store{store: s, ttl: ttl}
}

// Key returns the counter key for a tenant, window and outcome,
// e.g. docsearch:usage:acme:29000000:allowed.
func Key(t tenant.ID, window int64, allowed bool) string {
	outcome := outcomeRejected
	if allowed {
		outcome = outcomeAllowed
	}
	return keyPrefix + t.String() + ":" + strconv.FormatInt(window, 10) + ":" + outcome
}

// Record increments the tenant's allowed or rejected counter for window.
// The first increment of a window starts its retention TTL.
func (s *Store) Record(ctx context.Context, t tenant.ID, window int64, allowed bool) error {
	key := Key(t, window, allowed)
	if _, err := s.store.IncrWithTTL(ctx, key, 1, s.ttl); err != nil {
		return fmt.Errorf("usage record %s: %w", key, err)
	}
	return nil
}

// Counts returns the recorded allowed and rejected totals for window.
// Missing keys count as zero.
func (s *Store) Counts(ctx context.Context, t tenant.ID, window int64) (allowed, rejected int64, err error) {
	vals, err := s.store.Counters(ctx, Key(t, window, true), Key(t, window, false))
	if err != nil {
		return 0, 0, fmt.Errorf("usage counts %s/%d: %w", t, window, err)
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("usage counts %s/%d: got %d values", t, window, len(vals))
	}
	return vals[0], vals[1], nil
}
