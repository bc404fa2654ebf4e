package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP request outcomes, derived from the response status.
const (
	HTTPOutcomeOK          = "ok"
	HTTPOutcomeRateLimited = "rate_limited"
	HTTPOutcomeRejected    = "rejected"
	HTTPOutcomeUnavailable = "unavailable"
	HTTPOutcomeError       = "error"
)

const unknownRoute = "unknown"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route, status and outcome",
		},
		[]string{"method", "route", "status", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
}

// Middleware records request duration per route and counts requests by
// status and outcome, so quota rejections (429) show up as rate_limited.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routeLabel(r)

			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status), HTTPOutcome(status)).Inc()
		})
	}
}

// HTTPOutcome classifies a response status code.
func HTTPOutcome(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return HTTPOutcomeRateLimited
	case status == http.StatusServiceUnavailable:
		return HTTPOutcomeUnavailable
	case status >= 500:
		return HTTPOutcomeError
	case status >= 400:
		return HTTPOutcomeRejected
	default:
		return HTTPOutcomeOK
	}
}

// routeLabel uses the matched chi pattern so document ids never become labels.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unknownRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unknownRoute
}
