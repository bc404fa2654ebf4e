// Package quota implements per-tenant request admission: a fixed one-minute
// window aligned to the Unix epoch, counted independently for each tenant.
package quota

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Window is the length of one admission window.
const Window = time.Minute

// DefaultLimit is the per-window limit used when none is configured.
const DefaultLimit = 120

// Decision is the outcome of one admission check.
// Limit is 0 when the limiter is disabled.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time

	decidedAt time.Time
}

// Err returns nil for allowed decisions and a *domain.QuotaExceededError
// carrying the wait until the next window otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.NewQuotaExceeded(d.Limit, d.RetryAfter(d.decidedAt))
}

// RetryAfter returns how long a rejected caller should wait before the next
// window opens. Zero for allowed decisions.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed {
		return 0
	}
	wait := d.ResetAt.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Snapshot is a read-only view of a tenant's current window.
type Snapshot struct {
	Window    int64
	Limit     int
	Used      int
	Remaining int
	ResetAt   time.Time
}

type window struct {
	id    int64
	count int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		l.clock = clock
	}
}

// WithUsageRecorder reports every decision to r.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(l *Limiter) {
		l.recorder = r
	}
}

// WithLogger sets the logger for rejection and recorder warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// Limiter admits at most limit calls per tenant per window.
// Rejected calls do not consume capacity. All checks for all tenants are
// serialized by one mutex, so concurrent callers observe a single order.
type Limiter struct {
	limit    int
	clock    func() time.Time
	recorder UsageRecorder
	logger   *zap.Logger

	rejectLog   rate.Sometimes
	recorderLog rate.Sometimes

	mu      sync.Mutex
	windows map[tenant.ID]window
}

// NewLimiter creates a limiter. A limit of zero or less disables admission
// control: every call is allowed and no state is kept.
func NewLimiter(limit int, opts ...Option) *Limiter {
	l := &Limiter{
		limit:       limit,
		clock:       time.Now,
		logger:      zap.NewNop(),
		rejectLog:   rate.Sometimes{First: 1, Interval: 10 * time.Second},
		recorderLog: rate.Sometimes{First: 1, Interval: time.Minute},
		windows:     make(map[tenant.ID]window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enabled reports whether admission control is active.
func (l *Limiter) Enabled() bool { return l.limit > 0 }

// Limit returns the configured per-window limit.
func (l *Limiter) Limit() int { return l.limit }

// Admit checks and, if allowed, consumes one slot of the tenant's current window.
func (l *Limiter) Admit(ctx context.Context, t tenant.ID) Decision {
	now := l.clock()
	if l.limit <= 0 {
		d := Decision{Allowed: true, decidedAt: now}
		storeDecision(ctx, d)
		return d
	}

	id := windowID(now)

	l.mu.Lock()
	w, ok := l.windows[t]
	if !ok || w.id != id {
		w = window{id: id}
	}
	allowed := w.count+1 <= l.limit
	if allowed {
		w.count++
		l.windows[t] = w
	}
	used := w.count
	l.mu.Unlock()

	d := Decision{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: l.limit - used,
		ResetAt:   windowEnd(id),
		decidedAt: now,
	}
	storeDecision(ctx, d)

	if allowed {
		metrics.AdmissionDecisionsTotal.WithLabelValues("allowed").Inc()
	} else {
		metrics.AdmissionDecisionsTotal.WithLabelValues("rejected").Inc()
		l.rejectLog.Do(func() {
			l.logger.Warn("Rate limit exceeded",
				zap.String("tenant", t.String()),
				zap.Int("limit", l.limit),
				zap.Time("reset_at", d.ResetAt),
			)
		})
	}

	l.record(ctx, t, id, allowed)
	return d
}

// Snapshot returns the tenant's usage of the current window without consuming it.
func (l *Limiter) Snapshot(t tenant.ID) Snapshot {
	id := windowID(l.clock())
	s := Snapshot{Window: id, Limit: l.limit, ResetAt: windowEnd(id)}
	if l.limit <= 0 {
		return s
	}

	l.mu.Lock()
	w, ok := l.windows[t]
	l.mu.Unlock()

	if ok && w.id == id {
		s.Used = w.count
	}
	s.Remaining = l.limit - s.Used
	return s
}

func (l *Limiter) record(ctx context.Context, t tenant.ID, id int64, allowed bool) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Record(ctx, t, id, allowed); err != nil {
		metrics.UsageRecordErrorsTotal.Inc()
		l.recorderLog.Do(func() {
			l.logger.Warn("Failed to record usage", zap.String("tenant", t.String()), zap.Error(err))
		})
	}
}

// windowID is floor(unix seconds / 60).
func windowID(now time.Time) int64 {
	sec := now.Unix()
	size := int64(Window / time.Second)
	id := sec / size
	if sec%size < 0 {
		id--
	}
	return id
}

func windowEnd(id int64) time.Time {
	return time.Unix((id+1)*int64(Window/time.Second), 0).UTC()
}

type decisionKey struct{}

// CaptureDecision returns a context under which Admit stores its decision
// into the returned holder. Used by transports to emit rate limit headers.
func CaptureDecision(ctx context.Context) (context.Context, *Decision) {
	d := &Decision{}
	return context.WithValue(ctx, decisionKey{}, d), d
}

func storeDecision(ctx context.Context, d Decision) {
	if holder, ok := ctx.Value(decisionKey{}).(*Decision); ok {
		*holder = d
	}
}
