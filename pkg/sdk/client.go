package docsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/docsearch/internal/db/opensearch"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	domusage "github.com/kailas-cloud/docsearch/internal/domain/usage"
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

const (
	defaultIndex            = "documents"
	defaultRateLimit        = 120
	defaultReadinessTimeout = 10 * time.Second
)

// Internal interfaces, replaced with mocks in tests.
type documentUseCase interface {
	Create(ctx context.Context, t tenant.ID, id, title, content string) (domdoc.Document, error)
	Get(ctx context.Context, t tenant.ID, id string) (domdoc.Document, error)
	Delete(ctx context.Context, t tenant.ID, id string) error
}

type searchUseCase interface {
	Search(ctx context.Context, t tenant.ID, text string, size int) (result.Result, error)
}

type usageUseCase interface {
	GetReport(ctx context.Context, t tenant.ID) (domusage.Report, error)
}

type indexUseCase interface {
	EnsureReady(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
	Close()
}

// Client is the docsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	store     pinger
	docSvc    documentUseCase
	searchSvc searchUseCase
	usageSvc  usageUseCase
	healthSvc healthUseCase
	indexSvc  indexUseCase
	obs       *observer
}

// New creates a Client and waits for the cluster to answer. It then tries to
// create the index; if that fails New still returns the Client, logs a
// warning through WithLogger and leaves the retry to EnsureIndex.
// The provided context bounds the whole startup.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.url == "" {
		return nil, errors.New("docsearch: cluster url required (use WithOpenSearch)")
	}

	store, err := opensearch.NewStore(opensearch.Config{
		URL:            cfg.url,
		Username:       cfg.username,
		Password:       cfg.password,
		ConnectTimeout: cfg.connectTimeout,
		RequestTimeout: cfg.requestTimeout,
		Refresh:        cfg.refresh,
	})
	if err != nil {
		return nil, fmt.Errorf("docsearch: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docsearch: cluster not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	// Best-effort: a failure is reported by the observer and New still succeeds.
	_ = c.EnsureIndex(ctx)
	return c, nil
}

func wireClient(store *opensearch.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	def, err := indexrepo.Definition(cfg.index, cfg.shards, cfg.replicas)
	if err != nil {
		return nil, fmt.Errorf("docsearch: index definition: %w", err)
	}

	limiter := quota.NewLimiter(cfg.rateLimit, quota.WithClock(cfg.clock))

	docSvc := documentuc.New(documentrepo.New(store, def.Name), limiter).WithClock(cfg.clock)
	searchSvc := searchuc.New(searchrepo.New(store, def.Name), limiter)
	usageSvc := usageuc.New(limiter, nil, nil)
	healthSvc := healthuc.New(store, nil)
	indexSvc := indexuc.New(indexrepo.New(store, def), nil)

	return &Client{
		store:     store,
		docSvc:    docSvc,
		searchSvc: searchSvc,
		usageSvc:  usageSvc,
		healthSvc: healthSvc,
		indexSvc:  indexSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cluster connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the index with its mapping when it is missing.
func (c *Client) EnsureIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", start, err) }()

	if err = c.indexSvc.EnsureReady(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

// Documents returns the document service for a tenant.
func (c *Client) Documents(tenantID string) *DocumentService {
	return &DocumentService{tenant: tenantID, svc: c.docSvc, obs: c.obs}
}

// Search returns the search service for a tenant.
func (c *Client) Search(tenantID string) *SearchService {
	return &SearchService{tenant: tenantID, svc: c.searchSvc, obs: c.obs}
}
