package chi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/internal/usecase/quota"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/docsearch/internal/usecase/usage"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// maxBodyBytes caps the POST /documents body.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	documents     *documentuc.Service
	search        *searchuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	search *searchuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		documents: documents,
		search:    search,
		usage:     usage,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		quotaExceededHandler,
		sentinelHandler(domain.ErrTenantRequired, http.StatusBadRequest, ErrorCodeTenantRequired),
		sentinelHandler(domain.ErrValidationFailed, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, ErrorCodeDocumentNotFound),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, ErrorCodeBackendUnavailable),
	}
	return s
}

// CreateDocument handles POST /documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request, params TenantParams) {
	t, err := parseTenant(params.XTenantID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req CreateDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, dec := quota.CaptureDecision(r.Context())
	_, err = s.documents.Create(ctx, t, req.ID, req.Title, req.Content)
	setRateLimitHeaders(w, dec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateDocumentResponse{Result: "created"})
}

// SearchDocuments handles GET /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request, params SearchDocumentsParams) {
	t, err := parseTenant(params.XTenantID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	text := derefString(params.Q)
	ctx, dec := quota.CaptureDecision(r.Context())
	res, err := s.search.Search(ctx, t, text, derefInt(params.Size))
	setRateLimitHeaders(w, dec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResultToResponse(t, text, &res))
}

// GetDocument handles GET /documents/{docId}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, docID string, params TenantParams) {
	t, err := parseTenant(params.XTenantID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, dec := quota.CaptureDecision(r.Context())
	doc, err := s.documents.Get(ctx, t, docID)
	setRateLimitHeaders(w, dec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// DeleteDocument handles DELETE /documents/{docId}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request, docID string, params TenantParams) {
	t, err := parseTenant(params.XTenantID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, dec := quota.CaptureDecision(r.Context())
	err = s.documents.Delete(ctx, t, docID)
	setRateLimitHeaders(w, dec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params TenantParams) {
	t, err := parseTenant(params.XTenantID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	report, err := s.usage.GetReport(r.Context(), t)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := UsageResponse{
		Tenant:    report.Tenant().String(),
		Limit:     report.Limit(),
		Used:      report.Used(),
		Remaining: report.Remaining(),
		Unlimited: report.Unlimited(),
		ResetsAt:  report.ResetsAt(),
	}
	if rec, ok := report.Recorded(); ok {
		resp.Recorded = &RecordedUsage{Allowed: rec.Allowed, Rejected: rec.Rejected}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health. It always answers 200; a failing
// dependency only changes the reported status.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	deps := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		deps[k] = string(v)
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Overall:      string(report.Status),
		Dependencies: deps,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ParamErrorHandler answers 400 for requests whose parameters cannot be bound.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter "+pe.ParamName)
		return
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request")
}

func parseTenant(raw *string) (tenant.ID, error) {
	return tenant.Parse(derefString(raw))
}

// setRateLimitHeaders emits the admission outcome when one was made.
func setRateLimitHeaders(w http.ResponseWriter, d *quota.Decision) {
	if d == nil || d.Limit <= 0 {
		return
	}
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
}

// retryAfterSeconds rounds up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var qe *domain.QuotaExceededError
	if errors.As(err, &qe) {
		return qe.Error()
	}
	// Validation messages name the offending field and carry no backend detail.
	if errors.Is(err, domain.ErrValidationFailed) || errors.Is(err, domain.ErrTenantRequired) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrQuotaExceeded,
		domain.ErrDocumentNotFound,
		domain.ErrBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// quotaExceededHandler handles ErrQuotaExceeded with a Retry-After header.
func quotaExceededHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		return false
	}
	retry := time.Second
	var qe *domain.QuotaExceededError
	if errors.As(err, &qe) {
		retry = qe.RetryAfter
	}
	w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(retry)))
	writeError(w, http.StatusTooManyRequests, ErrorCodeRateLimited, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	if errors.Is(err, context.Canceled) {
		log.Debug("request canceled", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err))
	}
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func documentToResponse(doc *domdoc.Document) DocumentResponse {
	return DocumentResponse{
		Tenant:    doc.Tenant().String(),
		DocID:     doc.ID(),
		Title:     doc.Title(),
		Content:   doc.Content(),
		CreatedAt: doc.CreatedAt(),
	}
}

func searchResultToResponse(t tenant.ID, text string, res *result.Result) SearchResponse {
	hits := make([]SearchHit, len(res.Hits()))
	for i, h := range res.Hits() {
		hits[i] = SearchHit{
			DocID:  h.DocID(),
			Score:  h.Score(),
			Source: h.Source(),
		}
	}
	return SearchResponse{
		Tenant: t.String(),
		Query:  text,
		TookMs: res.Took().Milliseconds(),
		Total:  res.Total(),
		Hits:   hits,
	}
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
