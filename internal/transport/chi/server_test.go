package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/docsearch/internal/db/opensearch"
	"github.com/kailas-cloud/docsearch/internal/db/opensearch/opensearchtest"
	documentrepo "github.com/kailas-cloud/docsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/docsearch/internal/repository/index"
	searchrepo "github.com/kailas-cloud/docsearch/internal/repository/search"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	indexuc "github.com/kailas-cloud/docsearch/internal/usecase/index"
	"github.com/kailas-cloud/docsearch/internal/usecase/quota"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/docsearch/internal/usecase/usage"
)

// 2026-05-01T08:30:05Z: five seconds into a window.
var testNow = time.Unix(1_777_624_205, 0)

type testEnv struct {
	api     *httptest.Server
	backend *opensearchtest.Server
}

func newTestEnv(t *testing.T, limit int) *testEnv {
	t.Helper()

	backend := opensearchtest.NewServer()
	t.Cleanup(backend.Close)

	store, err := opensearch.NewStore(opensearch.Config{
		URL:            backend.URL,
		ConnectTimeout: time.Second,
		RequestTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)

	def, err := indexrepo.Definition("documents", 1, 0)
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if err := indexuc.New(indexrepo.New(store, def), nil).EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}

	lim := quota.NewLimiter(limit, quota.WithClock(func() time.Time { return testNow }))
	server := NewServer(
		documentuc.New(documentrepo.New(store, def.Name), lim).WithClock(func() time.Time { return testNow }),
		searchuc.New(searchrepo.New(store, def.Name), lim),
		usageuc.New(lim, nil, nil),
		healthuc.New(store, nil),
		nil,
	)

	r := chi.NewRouter()
	r.Use(BearerAuthMiddleware(nil))
	HandlerWithOptions(server, ChiServerOptions{BaseRouter: r, ErrorHandlerFunc: ParamErrorHandler})

	api := httptest.NewServer(r)
	t.Cleanup(api.Close)
	return &testEnv{api: api, backend: backend}
}

func (e *testEnv) do(t *testing.T, method, path, tenantID, body string) *http.Response {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.api.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if tenantID != "" {
		req.Header.Set("X-Tenant-Id", tenantID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) create(t *testing.T, tenantID, id, title, content string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(CreateDocumentRequest{ID: id, Title: title, Content: content})
	return e.do(t, http.MethodPost, "/documents", tenantID, string(body))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, body)
	}
}

// --- Documents ---

func TestDocumentLifecycle(t *testing.T) {
	env := newTestEnv(t, 100)

	resp := env.create(t, "acme", "d1", "Invoice", "Q1 numbers")
	expectStatus(t, resp, http.StatusCreated)
	if got := decode[CreateDocumentResponse](t, resp); got.Result != "created" {
		t.Errorf("result = %q, want created", got.Result)
	}

	resp = env.do(t, http.MethodGet, "/documents/d1", "acme", "")
	expectStatus(t, resp, http.StatusOK)
	doc := decode[DocumentResponse](t, resp)
	if doc.Tenant != "acme" || doc.DocID != "d1" || doc.Title != "Invoice" || doc.Content != "Q1 numbers" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if !doc.CreatedAt.Equal(testNow) {
		t.Errorf("createdAt = %v, want %v", doc.CreatedAt, testNow)
	}

	resp = env.do(t, http.MethodDelete, "/documents/d1", "acme", "")
	expectStatus(t, resp, http.StatusNoContent)

	resp = env.do(t, http.MethodGet, "/documents/d1", "acme", "")
	expectStatus(t, resp, http.StatusNotFound)
	if got := decode[ErrorResponse](t, resp); got.Code != ErrorCodeDocumentNotFound {
		t.Errorf("code = %q", got.Code)
	}
}

func TestCreateDocument_StoredUnderTenantKey(t *testing.T) {
	env := newTestEnv(t, 100)
	expectStatus(t, env.create(t, "acme", "d1", "Invoice", "Q1"), http.StatusCreated)

	src, ok := env.backend.Source("documents", "acme:d1")
	if !ok {
		t.Fatal("document not stored under acme:d1")
	}
	if src["tenant"] != "acme" || src["docId"] != "d1" {
		t.Errorf("stored source = %v", src)
	}
}

func TestCreateDocument_Upsert(t *testing.T) {
	env := newTestEnv(t, 100)
	expectStatus(t, env.create(t, "acme", "d1", "Old", "v1"), http.StatusCreated)
	expectStatus(t, env.create(t, "acme", "d1", "New", "v2"), http.StatusCreated)

	doc := decode[DocumentResponse](t, env.do(t, http.MethodGet, "/documents/d1", "acme", ""))
	if doc.Title != "New" || doc.Content != "v2" {
		t.Errorf("document not replaced: %+v", doc)
	}
}

func TestCreateDocument_Validation(t *testing.T) {
	env := newTestEnv(t, 100)

	tests := []struct {
		name     string
		body     string
		wantCode ErrorCode
	}{
		{"missing title", `{"id":"d1","content":"c"}`, ErrorCodeValidationFailed},
		{"missing content", `{"id":"d1","title":"t"}`, ErrorCodeValidationFailed},
		{"missing id", `{"title":"t","content":"c"}`, ErrorCodeValidationFailed},
		{"malformed json", `{"id":`, ErrorCodeBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/documents", "acme", tc.body)
			expectStatus(t, resp, http.StatusBadRequest)
			if got := decode[ErrorResponse](t, resp); got.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tc.wantCode)
			}
		})
	}
}

func TestTenantRequired(t *testing.T) {
	env := newTestEnv(t, 100)
	calls := env.backend.Calls()

	requests := []struct{ method, path, body string }{
		{http.MethodPost, "/documents", `{"id":"d1","title":"t","content":"c"}`},
		{http.MethodGet, "/documents/d1", ""},
		{http.MethodDelete, "/documents/d1", ""},
		{http.MethodGet, "/search?q=x", ""},
		{http.MethodGet, "/usage", ""},
	}
	for _, rq := range requests {
		resp := env.do(t, rq.method, rq.path, "", rq.body)
		expectStatus(t, resp, http.StatusBadRequest)
		if got := decode[ErrorResponse](t, resp); got.Code != ErrorCodeTenantRequired {
			t.Errorf("%s %s: code = %q", rq.method, rq.path, got.Code)
		}
	}

	resp := env.do(t, http.MethodGet, "/documents/d1", "bad:tenant", "")
	expectStatus(t, resp, http.StatusBadRequest)

	if got := env.backend.Calls(); got != calls {
		t.Errorf("backend calls = %d, want %d", got, calls)
	}
}

func TestDeleteDocument_NotFound(t *testing.T) {
	env := newTestEnv(t, 100)
	resp := env.do(t, http.MethodDelete, "/documents/missing", "acme", "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestDocumentID_PathEscaped(t *testing.T) {
	env := newTestEnv(t, 100)
	expectStatus(t, env.create(t, "acme", "a/b?c", "Slash", "content"), http.StatusCreated)

	resp := env.do(t, http.MethodGet, "/documents/a%2Fb%3Fc", "acme", "")
	expectStatus(t, resp, http.StatusOK)
	if doc := decode[DocumentResponse](t, resp); doc.DocID != "a/b?c" {
		t.Errorf("docId = %q", doc.DocID)
	}
}

// --- Tenant isolation ---

func TestTenantIsolation(t *testing.T) {
	env := newTestEnv(t, 100)
	expectStatus(t, env.create(t, "acme", "d1", "Invoice", "acme secret"), http.StatusCreated)

	expectStatus(t, env.do(t, http.MethodGet, "/documents/d1", "globex", ""), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodDelete, "/documents/d1", "globex", ""), http.StatusNotFound)

	resp := env.do(t, http.MethodGet, "/search?q=invoice", "globex", "")
	expectStatus(t, resp, http.StatusOK)
	if got := decode[SearchResponse](t, resp); got.Total != 0 || len(got.Hits) != 0 {
		t.Errorf("globex sees acme documents: %+v", got)
	}

	// The owner still has it.
	expectStatus(t, env.do(t, http.MethodGet, "/documents/d1", "acme", ""), http.StatusOK)
}

// --- Search ---

func TestSearch_TitleBoostRanking(t *testing.T) {
	env := newTestEnv(t, 100)
	expectStatus(t, env.create(t, "acme", "body", "Quarterly report", "invoice attached"), http.StatusCreated)
	expectStatus(t, env.create(t, "acme", "title", "Invoice", "see attachment"), http.StatusCreated)
	expectStatus(t, env.create(t, "acme", "other", "Minutes", "meeting notes"), http.StatusCreated)

	resp := env.do(t, http.MethodGet, "/search?q=invoice", "acme", "")
	expectStatus(t, resp, http.StatusOK)
	got := decode[SearchResponse](t, resp)

	if got.Tenant != "acme" || got.Query != "invoice" {
		t.Errorf("tenant/query = %q/%q", got.Tenant, got.Query)
	}
	if got.Total != 2 || len(got.Hits) != 2 {
		t.Fatalf("total=%d hits=%d, want 2/2", got.Total, len(got.Hits))
	}
	if got.Hits[0].DocID != "title" || got.Hits[1].DocID != "body" {
		t.Errorf("order = [%s %s], want [title body]", got.Hits[0].DocID, got.Hits[1].DocID)
	}
	if got.Hits[0].Score <= got.Hits[1].Score {
		t.Errorf("scores = %v, %v", got.Hits[0].Score, got.Hits[1].Score)
	}
	if got.Hits[0].Source["title"] != "Invoice" {
		t.Errorf("_source = %v", got.Hits[0].Source)
	}
}

func TestSearch_Size(t *testing.T) {
	env := newTestEnv(t, 100)
	for _, id := range []string{"a", "b", "c"} {
		expectStatus(t, env.create(t, "acme", id, "invoice "+id, "c"), http.StatusCreated)
	}

	resp := env.do(t, http.MethodGet, "/search?q=invoice&size=2", "acme", "")
	expectStatus(t, resp, http.StatusOK)
	got := decode[SearchResponse](t, resp)
	if got.Total != 3 || len(got.Hits) != 2 {
		t.Errorf("total=%d hits=%d, want 3/2", got.Total, len(got.Hits))
	}
}

func TestSearch_BadParams(t *testing.T) {
	env := newTestEnv(t, 100)

	resp := env.do(t, http.MethodGet, "/search", "acme", "")
	expectStatus(t, resp, http.StatusBadRequest)
	if got := decode[ErrorResponse](t, resp); got.Code != ErrorCodeValidationFailed {
		t.Errorf("missing q: code = %q", got.Code)
	}

	resp = env.do(t, http.MethodGet, "/search?q=x&size=ten", "acme", "")
	expectStatus(t, resp, http.StatusBadRequest)
	if got := decode[ErrorResponse](t, resp); got.Code != ErrorCodeBadRequest {
		t.Errorf("bad size: code = %q", got.Code)
	}
}

// --- Rate limiting ---

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)

	resp := env.create(t, "acme", "d1", "t", "c")
	expectStatus(t, resp, http.StatusCreated)
	if resp.Header.Get(HeaderRateLimitLimit) != "2" || resp.Header.Get(HeaderRateLimitRemaining) != "1" {
		t.Errorf("headers = %v", resp.Header)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/documents/d1", "acme", ""), http.StatusOK)

	calls := env.backend.Calls()
	resp = env.do(t, http.MethodGet, "/search?q=t", "acme", "")
	expectStatus(t, resp, http.StatusTooManyRequests)
	if got := resp.Header.Get(HeaderRetryAfter); got != "55" {
		t.Errorf("Retry-After = %q, want 55", got)
	}
	if resp.Header.Get(HeaderRateLimitRemaining) != "0" {
		t.Errorf("remaining = %q", resp.Header.Get(HeaderRateLimitRemaining))
	}
	if got := decode[ErrorResponse](t, resp); got.Code != ErrorCodeRateLimited {
		t.Errorf("code = %q", got.Code)
	}
	if env.backend.Calls() != calls {
		t.Error("rate-limited request reached the backend")
	}

	// Another tenant has its own window.
	expectStatus(t, env.do(t, http.MethodGet, "/documents/d1", "globex", ""), http.StatusNotFound)
}

func TestRateLimit_BeforeValidation(t *testing.T) {
	env := newTestEnv(t, 1)
	expectStatus(t, env.do(t, http.MethodGet, "/search", "acme", ""), http.StatusBadRequest)

	// The invalid request consumed the only slot.
	expectStatus(t, env.do(t, http.MethodGet, "/search?q=x", "acme", ""), http.StatusTooManyRequests)
}

func TestRateLimit_Disabled(t *testing.T) {
	env := newTestEnv(t, 0)
	for range 5 {
		resp := env.do(t, http.MethodGet, "/documents/missing", "acme", "")
		expectStatus(t, resp, http.StatusNotFound)
		if resp.Header.Get(HeaderRateLimitLimit) != "" {
			t.Error("disabled limiter must not emit rate limit headers")
		}
	}
}

// --- Backend failure ---

func TestBackendUnavailable(t *testing.T) {
	env := newTestEnv(t, 100)
	env.backend.SetFailure(http.StatusInternalServerError)

	for _, rq := range []struct{ method, path, body string }{
		{http.MethodPost, "/documents", `{"id":"d1","title":"t","content":"c"}`},
		{http.MethodGet, "/documents/d1", ""},
		{http.MethodDelete, "/documents/d1", ""},
		{http.MethodGet, "/search?q=x", ""},
	} {
		resp := env.do(t, rq.method, rq.path, "acme", rq.body)
		expectStatus(t, resp, http.StatusServiceUnavailable)
		got := decode[ErrorResponse](t, resp)
		if got.Code != ErrorCodeBackendUnavailable {
			t.Errorf("%s %s: code = %q", rq.method, rq.path, got.Code)
		}
		if strings.Contains(got.Message, "500") {
			t.Errorf("%s %s: backend detail leaked: %q", rq.method, rq.path, got.Message)
		}
	}
}

// --- Health, usage, metrics ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 1)

	resp := env.do(t, http.MethodGet, "/health", "", "")
	expectStatus(t, resp, http.StatusOK)
	got := decode[HealthResponse](t, resp)
	if got.Overall != "UP" || got.Dependencies["backend"] != "UP" {
		t.Errorf("health = %+v", got)
	}

	env.backend.SetFailure(http.StatusServiceUnavailable)
	resp = env.do(t, http.MethodGet, "/health", "", "")
	expectStatus(t, resp, http.StatusOK)
	got = decode[HealthResponse](t, resp)
	if got.Overall != "DEGRADED" || got.Dependencies["backend"] != "DOWN" {
		t.Errorf("health = %+v", got)
	}
}

func TestUsage(t *testing.T) {
	env := newTestEnv(t, 3)
	expectStatus(t, env.do(t, http.MethodGet, "/documents/missing", "acme", ""), http.StatusNotFound)

	for range 2 {
		resp := env.do(t, http.MethodGet, "/usage", "acme", "")
		expectStatus(t, resp, http.StatusOK)
		got := decode[UsageResponse](t, resp)
		if got.Tenant != "acme" || got.Limit != 3 || got.Used != 1 || got.Remaining != 2 {
			t.Errorf("usage = %+v", got)
		}
		if !got.ResetsAt.Equal(time.Unix(1_777_624_260, 0)) {
			t.Errorf("resetsAt = %v", got.ResetsAt)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 1)
	resp := env.do(t, http.MethodGet, "/metrics", "", "")
	expectStatus(t, resp, http.StatusOK)
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{-time.Second, 1},
		{300 * time.Millisecond, 1},
		{55 * time.Second, 55},
		{54*time.Second + time.Millisecond, 55},
	}
	for _, tc := range tests {
		if got := retryAfterSeconds(tc.in); got != tc.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
