package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeTenantRequired     ErrorCode = "tenant_required"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeRateLimited        ErrorCode = "rate_limited"
	ErrorCodeDocumentNotFound   ErrorCode = "document_not_found"
	ErrorCodeBackendUnavailable ErrorCode = "backend_unavailable"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateDocumentResponse is returned by POST /documents.
type CreateDocumentResponse struct {
	Result string `json:"result"`
}

// DocumentResponse carries the stored fields of a document.
type DocumentResponse struct {
	Tenant    string    `json:"tenant"`
	DocID     string    `json:"docId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchHit is one ranked search hit.
type SearchHit struct {
	DocID  string         `json:"docId"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Tenant string      `json:"tenant"`
	Query  string      `json:"query"`
	TookMs int64       `json:"tookMs"`
	Total  int64       `json:"total"`
	Hits   []SearchHit `json:"hits"`
}

// RecordedUsage carries persisted decision counters.
type RecordedUsage struct {
	Allowed  int64 `json:"allowed"`
	Rejected int64 `json:"rejected"`
}

// UsageResponse is returned by GET /usage.
type UsageResponse struct {
	Tenant    string         `json:"tenant"`
	Limit     int            `json:"limit"`
	Used      int            `json:"used"`
	Remaining int            `json:"remaining"`
	Unlimited bool           `json:"unlimited"`
	ResetsAt  time.Time      `json:"resetsAt"`
	Recorded  *RecordedUsage `json:"recorded,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Overall      string            `json:"overall"`
	Dependencies map[string]string `json:"dependencies"`
}

// TenantParams holds the tenant header shared by tenant-scoped operations.
type TenantParams struct {
	XTenantID *string
}

// SearchDocumentsParams defines parameters for GET /search.
type SearchDocumentsParams struct {
	Q         *string
	Size      *int
	XTenantID *string
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// CreateDocument handles POST /documents.
	CreateDocument(w http.ResponseWriter, r *http.Request, params TenantParams)
	// SearchDocuments handles GET /search.
	SearchDocuments(w http.ResponseWriter, r *http.Request, params SearchDocumentsParams)
	// GetDocument handles GET /documents/{docId}.
	GetDocument(w http.ResponseWriter, r *http.Request, docID string, params TenantParams)
	// DeleteDocument handles DELETE /documents/{docId}.
	DeleteDocument(w http.ResponseWriter, r *http.Request, docID string, params TenantParams)
	// GetUsage handles GET /usage.
	GetUsage(w http.ResponseWriter, r *http.Request, params TenantParams)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper binds request parameters and dispatches to the handlers.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	h.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) bindTenant(w http.ResponseWriter, r *http.Request) (*string, bool) {
	values := r.Header.Values(tenant.Header)
	if len(values) == 0 {
		return nil, true
	}
	if len(values) > 1 {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{
			ParamName: tenant.Header,
			Err:       fmt.Errorf("expected one value, got %d", len(values)),
		})
		return nil, false
	}

	var v string
	err := runtime.BindStyledParameterWithOptions("simple", tenant.Header, values[0], &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: tenant.Header, Err: err})
		return nil, false
	}
	return &v, true
}

func (siw *ServerInterfaceWrapper) bindDocID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var docID string
	err := runtime.BindStyledParameterWithOptions("simple", "docId", chi.URLParam(r, "docId"), &docID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "docId", Err: err})
		return "", false
	}
	return docID, true
}

// CreateDocument operation middleware.
func (siw *ServerInterfaceWrapper) CreateDocument(w http.ResponseWriter, r *http.Request) {
	xTenant, ok := siw.bindTenant(w, r)
	if !ok {
		return
	}
	params := TenantParams{XTenantID: xTenant}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreateDocument(w, r, params)
	}))
}

// SearchDocuments operation middleware.
func (siw *ServerInterfaceWrapper) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var params SearchDocumentsParams

	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "size", r.URL.Query(), &params.Size); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "size", Err: err})
		return
	}

	xTenant, ok := siw.bindTenant(w, r)
	if !ok {
		return
	}
	params.XTenantID = xTenant

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchDocuments(w, r, params)
	}))
}

// GetDocument operation middleware.
func (siw *ServerInterfaceWrapper) GetDocument(w http.ResponseWriter, r *http.Request) {
	docID, ok := siw.bindDocID(w, r)
	if !ok {
		return
	}
	xTenant, ok := siw.bindTenant(w, r)
	if !ok {
		return
	}
	params := TenantParams{XTenantID: xTenant}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetDocument(w, r, docID, params)
	}))
}

// DeleteDocument operation middleware.
func (siw *ServerInterfaceWrapper) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID, ok := siw.bindDocID(w, r)
	if !ok {
		return
	}
	xTenant, ok := siw.bindTenant(w, r)
	if !ok {
		return
	}
	params := TenantParams{XTenantID: xTenant}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteDocument(w, r, docID, params)
	}))
}

// GetUsage operation middleware.
func (siw *ServerInterfaceWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	xTenant, ok := siw.bindTenant(w, r)
	if !ok {
		return
	}
	params := TenantParams{XTenantID: xTenant}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetUsage(w, r, params)
	}))
}

// HealthCheck operation middleware.
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.HealthCheck))
}

// Metrics operation middleware.
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.Metrics))
}

// Handler creates an http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates an http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/documents", wrapper.CreateDocument)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/search", wrapper.SearchDocuments)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/documents/{docId}", wrapper.GetDocument)
	})
	r.Group(func(r chi.Router) {
		r.Delete(options.BaseURL+"/documents/{docId}", wrapper.DeleteDocument)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/usage", wrapper.GetUsage)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})

	return r
}
