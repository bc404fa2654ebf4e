package docsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for SDK calls.
const (
	outcomeOK          = "ok"
	outcomeNotFound    = "not_found"
	outcomeInvalid     = "invalid"
	outcomeRateLimited = "rate_limited"
	outcomeError       = "error"
)

// sdkMetrics holds the collectors the SDK reports into.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsearch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docsearch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK call duration in seconds, rejected calls included.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
	ops, err := register(reg, m.operations)
	if err != nil {
		return nil, err
	}
	dur, err := register(reg, m.duration)
	if err != nil {
		return nil, err
	}

	var ok bool
	if m.operations, ok = ops.(*prometheus.CounterVec); !ok {
		return nil, fmt.Errorf("docsearch: metric already registered with incompatible type: %T", ops)
	}
	if m.duration, ok = dur.(*prometheus.HistogramVec); !ok {
		return nil, fmt.Errorf("docsearch: metric already registered with incompatible type: %T", dur)
	}
	return m, nil
}

// register adds c to reg and returns the collector to use: c itself, or the
// one another Client already registered under the same name.
func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector, nil
	}
	return nil, fmt.Errorf("docsearch: register metric: %w", err)
}

// outcome maps a call error onto its metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrQuotaExceeded):
		return outcomeRateLimited
	case errors.Is(err, ErrDocumentNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrTenantRequired):
		return outcomeInvalid
	default:
		return outcomeError
	}
}

// observer reports SDK calls to the configured logger and registry.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	result := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, result).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	switch result {
	case outcomeOK, outcomeNotFound, outcomeInvalid:
		o.logger.Debug("docsearch call", "op", op, "outcome", result, "duration", dur)
	case outcomeRateLimited:
		attrs := []any{"op", op, "duration", dur}
		var qe *QuotaExceededError
		if errors.As(err, &qe) {
			attrs = append(attrs, "limit", qe.Limit, "retry_after", qe.RetryAfter)
		}
		o.logger.Info("docsearch call rate limited", attrs...)
	default:
		o.logger.Warn("docsearch call failed", "op", op, "duration", dur, "error", err)
	}
}
