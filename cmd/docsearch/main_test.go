package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	"github.com/kailas-cloud/docsearch/internal/usecase/quota"
)

type shutdownFunc func(ctx context.Context) error

func (f shutdownFunc) Shutdown(ctx context.Context) error { return f(ctx) }

type countingRecorder struct {
	mu sync.Mutex
	n  int
}

func (c *countingRecorder) Record(context.Context, tenant.ID, int64, bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestShutdownServer_PersistsUsageFromInFlightRequests(t *testing.T) {
	persisted := &countingRecorder{}
	rec := quota.NewAsyncRecorder(persisted, 8, zap.NewNop())

	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(recorderCtx) }()

	// Shutdown waits for a request that finishes, and records usage, while
	// the server is draining.
	srv := shutdownFunc(func(context.Context) error {
		if recorderCtx.Err() != nil {
			t.Error("recorder stopped before server shutdown returned")
		}
		return rec.Record(context.Background(), "acme", 1, true)
	})

	if err := shutdownServer(srv, time.Second, stopRecorder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorderCtx.Err() == nil {
		t.Error("recorder not stopped after shutdown")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop")
	}
	if got := persisted.count(); got != 1 {
		t.Errorf("persisted %d events, want 1", got)
	}
}

func TestShutdownServer_ErrorStillStopsRecorder(t *testing.T) {
	stopped := false
	srv := shutdownFunc(func(context.Context) error { return context.DeadlineExceeded })

	err := shutdownServer(srv, time.Second, func() { stopped = true })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if !stopped {
		t.Error("recorder not stopped on shutdown error")
	}
}

func TestShutdownServer_AppliesTimeout(t *testing.T) {
	srv := shutdownFunc(func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Fatal("shutdown context has no deadline")
		}
		if remaining := time.Until(deadline); remaining > 50*time.Millisecond {
			t.Errorf("deadline in %v, want <= 50ms", remaining)
		}
		return nil
	})

	if err := shutdownServer(srv, 50*time.Millisecond, func() {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
