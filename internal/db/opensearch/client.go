// Package opensearch implements db.Store on top of the opensearch-go client.
package opensearch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	osgo "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const (
	tracerName = "github.com/kailas-cloud/docsearch/internal/db/opensearch"

	defaultConnectTimeout = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// Refresh policies applied to document writes.
const (
	RefreshNone    = ""
	RefreshTrue    = "true"
	RefreshWaitFor = "wait_for"
)

// Config holds connection parameters for an OpenSearch cluster.
type Config struct {
	URL            string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	// Refresh is passed as ?refresh= on writes; empty leaves it to the cluster.
	Refresh string
}

// Option customizes a Store.
type Option func(*Store)

// WithTransport replaces the HTTP transport built from Config timeouts.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Store) {
		s.transport = rt
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = t
	}
}

// Store implements db.Store with opensearchapi.Client.
type Store struct {
	api            *opensearchapi.Client
	transport      http.RoundTripper
	tracer         trace.Tracer
	requestTimeout time.Duration
	refresh        string
}

// NewStore creates an OpenSearch store. The connect timeout must not exceed
// the request timeout.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	switch cfg.Refresh {
	case RefreshNone, RefreshTrue, RefreshWaitFor:
	default:
		return nil, fmt.Errorf("unsupported refresh policy %q", cfg.Refresh)
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if connectTimeout > requestTimeout {
		return nil, fmt.Errorf("connect timeout %s exceeds request timeout %s", connectTimeout, requestTimeout)
	}

	s := &Store{
		transport:      newTransport(connectTimeout),
		tracer:         otel.Tracer(tracerName),
		requestTimeout: requestTimeout,
		refresh:        cfg.Refresh,
	}
	for _, opt := range opts {
		opt(s)
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: osgo.Config{
			Addresses:    []string{u.String()},
			Username:     cfg.Username,
			Password:     cfg.Password,
			Transport:    s.transport,
			DisableRetry: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}
	s.api = api
	return s, nil
}

// newTransport bounds dialing and TLS by connectTimeout. The whole call is
// bounded separately by the request timeout on its context.
func newTransport(connectTimeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.MaxIdleConnsPerHost = 32
	return transport
}

// Ping checks that the cluster answers its root endpoint.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.call(ctx, db.OpPing, func(ctx context.Context) (*osgo.Response, error) {
		return s.api.Ping(ctx, &opensearchapi.PingReq{})
	})
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	if t, ok := s.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for opensearch: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// call runs one client call under the request timeout inside a span and
// records its duration and outcome. It returns the HTTP status (0 when the
// cluster was not reached) and, for anything but 2xx, a *db.Error carrying
// either the transport failure or a *db.StatusError.
func (s *Store) call(
	ctx context.Context, op string, fn func(ctx context.Context) (*osgo.Response, error),
) (int, error) {
	ctx, span := s.tracer.Start(ctx, "opensearch "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "opensearch"),
			attribute.String("db.operation", op),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := fn(ctx)
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := statusOf(resp, err)
	if status == 0 {
		if err == nil {
			err = errors.New("empty response")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.BackendRequestsTotal.WithLabelValues(op, metrics.OutcomeUnavailable).Inc()
		return 0, &db.Error{Op: op, Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	ok := status >= 200 && status < 300
	outcome := metrics.OutcomeOK
	switch {
	case status == http.StatusNotFound:
		outcome = metrics.OutcomeNotFound
	case !ok:
		outcome = metrics.OutcomeError
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
	}
	metrics.BackendRequestsTotal.WithLabelValues(op, outcome).Inc()

	switch {
	case !ok:
		return status, &db.Error{Op: op, Err: &db.StatusError{Code: status, Type: errorType(err)}}
	case err != nil:
		// 2xx with a body the client could not decode.
		return status, &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return status, nil
}

// statusOf returns the HTTP status of a call, falling back to the status
// carried by a parsed cluster error when the client dropped the response.
func statusOf(resp *osgo.Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	var se *osgo.StructError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// errorType lifts error.type out of a cluster error response.
func errorType(err error) string {
	var se *osgo.StructError
	if errors.As(err, &se) {
		return se.Err.Type
	}
	return ""
}

// docID escapes a document key so '/' and '?' stay within one path segment.
func docID(key string) string {
	return url.PathEscape(key)
}
