package docsearch

import (
	"context"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	domusage "github.com/kailas-cloud/docsearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
)

// --- documentUseCase mock ---

type mockDocumentUC struct {
	createFn func(ctx context.Context, t tenant.ID, id, title, content string) (domdoc.Document, error)
	getFn    func(ctx context.Context, t tenant.ID, id string) (domdoc.Document, error)
	deleteFn func(ctx context.Context, t tenant.ID, id string) error
}

func (m *mockDocumentUC) Create(
	ctx context.Context, t tenant.ID, id, title, content string,
) (domdoc.Document, error) {
	return m.createFn(ctx, t, id, title, content)
}

func (m *mockDocumentUC) Get(ctx context.Context, t tenant.ID, id string) (domdoc.Document, error) {
	return m.getFn(ctx, t, id)
}

func (m *mockDocumentUC) Delete(ctx context.Context, t tenant.ID, id string) error {
	return m.deleteFn(ctx, t, id)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, t tenant.ID, text string, size int) (result.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, t tenant.ID, text string, size int) (result.Result, error) {
	return m.searchFn(ctx, t, text, size)
}

// --- usageUseCase mock ---

type mockUsageUC struct {
	reportFn func(ctx context.Context, t tenant.ID) (domusage.Report, error)
}

func (m *mockUsageUC) GetReport(ctx context.Context, t tenant.ID) (domusage.Report, error) {
	return m.reportFn(ctx, t)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	err   error
	calls int
}

func (m *mockIndexUC) EnsureReady(_ context.Context) error {
	m.calls++
	return m.err
}

// --- pinger mock ---

type mockStore struct {
	pingErr error
	closed  bool
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

func (m *mockStore) Close() { m.closed = true }
