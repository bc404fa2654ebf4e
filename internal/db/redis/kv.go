package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docsearch/internal/db"
)

// IncrWithTTL pipelines INCRBY and EXPIRE NX in one round trip. A ttl below
// one second is rounded up so the key is never expired immediately.
func (s *Store) IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}

	results := s.client.DoMulti(ctx,
		s.b().Incrby().Key(key).Increment(delta).Build(),
		s.b().Expire().Key(key).Seconds(secs).Nx().Build(),
	)

	val, err := results[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrTTL, Err: err}
	}
	if err := results[1].Error(); err != nil {
		return 0, &db.Error{Op: db.OpIncrTTL, Err: err}
	}
	return val, nil
}

// Counters reads keys with a single MGET.
func (s *Store) Counters(ctx context.Context, keys ...string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	msgs, err := s.do(ctx, s.b().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpCounters, Err: err}
	}
	if len(msgs) != len(keys) {
		return nil, &db.Error{Op: db.OpCounters, Err: fmt.Errorf("got %d values for %d keys", len(msgs), len(keys))}
	}

	out := make([]int64, len(keys))
	for i, m := range msgs {
		if m.IsNil() {
			continue
		}
		v, err := m.AsInt64()
		if err != nil {
			return nil, &db.Error{Op: db.OpCounters, Err: fmt.Errorf("%s: %w", keys[i], err)}
		}
		out[i] = v
	}
	return out, nil
}
