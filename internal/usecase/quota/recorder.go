package quota

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// ErrRecorderFull is returned when the write-behind buffer has no room.
var ErrRecorderFull = errors.New("usage recorder buffer full")

const (
	defaultBuffer       = 1024
	defaultWriteTimeout = 2 * time.Second
	drainTimeout        = 5 * time.Second
)

type usageEvent struct {
	tenant  tenant.ID
	window  int64
	allowed bool
}

// AsyncRecorder is a write-behind UsageRecorder: Record only enqueues,
// Run delivers events to the wrapped recorder.
type AsyncRecorder struct {
	next   UsageRecorder
	events chan usageEvent
	logger *zap.Logger
}

// NewAsyncRecorder wraps next with a buffer of the given size (<=0 uses 1024).
func NewAsyncRecorder(next UsageRecorder, buffer int, logger *zap.Logger) *AsyncRecorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &AsyncRecorder{
		next:   next,
		events: make(chan usageEvent, buffer),
		logger: logger,
	}
}

// Record enqueues the event without blocking. Returns ErrRecorderFull when
// the buffer is full; the event is dropped.
func (a *AsyncRecorder) Record(_ context.Context, t tenant.ID, window int64, allowed bool) error {
	select {
	case a.events <- usageEvent{tenant: t, window: window, allowed: allowed}:
		return nil
	default:
		return ErrRecorderFull
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left within a bounded time.
func (a *AsyncRecorder) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-a.events:
			a.write(context.WithoutCancel(ctx), ev)
		case <-ctx.Done():
			a.drain(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (a *AsyncRecorder) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	for {
		select {
		case ev := <-a.events:
			a.write(ctx, ev)
		default:
			return
		}
		if ctx.Err() != nil {
			a.logger.Warn("Usage drain timed out", zap.Int("pending", len(a.events)))
			return
		}
	}
}

func (a *AsyncRecorder) write(ctx context.Context, ev usageEvent) {
	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if err := a.next.Record(ctx, ev.tenant, ev.window, ev.allowed); err != nil {
		metrics.UsageRecordErrorsTotal.Inc()
		a.logger.Warn("Failed to persist usage",
			zap.String("tenant", ev.tenant.String()),
			zap.Int64("window", ev.window),
			zap.Error(err),
		)
	}
}
