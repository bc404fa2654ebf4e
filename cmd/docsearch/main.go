// Command docsearch runs the tenant-isolated document search API.
//
// Usage:
//
//	docsearch serve --env prod
//	docsearch ensure-index
//	docsearch version
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docsearch/internal/config"
	"github.com/kailas-cloud/docsearch/internal/db/opensearch"
	dbRedis "github.com/kailas-cloud/docsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/metrics"
	documentrepo "github.com/kailas-cloud/docsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/docsearch/internal/repository/index"
	quotarepo "github.com/kailas-cloud/docsearch/internal/repository/quota"
	searchrepo "github.com/kailas-cloud/docsearch/internal/repository/search"
	chiTransport "github.com/kailas-cloud/docsearch/internal/transport/chi"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	indexuc "github.com/kailas-cloud/docsearch/internal/usecase/index"
	"github.com/kailas-cloud/docsearch/internal/usecase/quota"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/docsearch/internal/usecase/usage"
	"github.com/kailas-cloud/docsearch/internal/version"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve       ServeCmd       `cmd:"" default:"1" help:"Start the HTTP API server."`
	EnsureIndex EnsureIndexCmd `cmd:"" name:"ensure-index" help:"Create the document index if it does not exist."`
	Version     VersionCmd     `cmd:"" help:"Show version information."`

	Env string `help:"Environment: selects config/<env>.yaml and .env.<env>." default:"${env}"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Run prints build metadata.
func (c *VersionCmd) Run() error {
	fmt.Println(version.String())
	return nil
}

// EnsureIndexCmd creates the index and exits.
type EnsureIndexCmd struct{}

// Run connects to the backend and creates the index with its mapping.
func (c *EnsureIndexCmd) Run(cli *CLI) error {
	app, err := bootstrap(cli.Env)
	if err != nil {
		return err
	}
	defer app.close()

	store, err := newBackend(app.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	idx, err := newIndexService(app.cfg, store, app.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(app.cfg.Backend.ReadinessTimeout)*time.Second)
	defer cancel()

	if err := store.WaitForReady(ctx, time.Duration(app.cfg.Backend.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("backend not ready: %w", err)
	}
	return idx.EnsureReady(ctx)
}

// ServeCmd starts the HTTP API server.
type ServeCmd struct{}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func (c *ServeCmd) Run(cli *CLI) error {
	app, err := bootstrap(cli.Env)
	if err != nil {
		return err
	}
	defer app.close()

	cfg, logger := app.cfg, app.logger

	logger.Info("Starting docsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", cli.Env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend_url", cfg.Backend.URL),
		zap.String("index", cfg.Backend.Index),
		zap.Int("rate_limit_per_minute", cfg.RateLimit.Limit()),
		zap.Bool("usage_store", cfg.UsageStore.Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterDomainMetrics()

	store, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	readiness := time.Duration(cfg.Backend.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		logger.Warn("Backend not ready, starting degraded", zap.Error(err))
	} else {
		logger.Info("Connected to backend")
	}

	idx, err := newIndexService(cfg, store, logger)
	if err != nil {
		return err
	}
	idx.Bootstrap(ctx)

	g, gctx := errgroup.WithContext(ctx)

	// The usage recorder is stopped only after srv.Shutdown returns, so
	// requests still in flight during shutdown can enqueue their usage.
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	// Optional usage store. Interfaces stay nil (not typed nil) when disabled.
	limiterOpts := []quota.Option{quota.WithLogger(logger)}
	var (
		usagePinger healthuc.Pinger
		counters    usageuc.CounterReader
	)
	if cfg.UsageStore.Enabled() {
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.UsageStore.Addrs,
			Username: cfg.UsageStore.Username,
			Password: cfg.UsageStore.Password,
			DB:       cfg.UsageStore.DB,
		})
		if err != nil {
			return fmt.Errorf("create usage store: %w", err)
		}
		defer kv.Close()

		if err := kv.WaitForReady(ctx, readiness); err != nil {
			logger.Warn("Usage store not ready, counters may be lost", zap.Error(err))
		}

		usage := quotarepo.New(kv, time.Duration(cfg.UsageStore.TTLSec)*time.Second)
		recorder := quota.NewAsyncRecorder(usage, cfg.UsageStore.Buffer, logger)
		g.Go(func() error { return recorder.Run(recorderCtx) })

		limiterOpts = append(limiterOpts, quota.WithUsageRecorder(recorder))
		usagePinger = kv
		counters = usage
		logger.Info("Usage store enabled", zap.Strings("addrs", cfg.UsageStore.Addrs))
	}

	limiter := quota.NewLimiter(cfg.RateLimit.Limit(), limiterOpts...)
	if !limiter.Enabled() {
		logger.Warn("Rate limiting disabled", zap.Int("per_minute", limiter.Limit()))
	}

	index := cfg.Backend.Index
	docSvc := documentuc.New(documentrepo.New(store, index), limiter)
	searchSvc := searchuc.New(searchrepo.New(store, index), limiter)
	usageSvc := usageuc.New(limiter, counters, logger)
	healthSvc := healthuc.New(store, usagePinger)

	server := chiTransport.NewServer(docSvc, searchSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")
		return shutdownServer(srv, time.Duration(cfg.HTTP.ShutdownSec)*time.Second, stopRecorder)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownServer gracefully stops srv within timeout and then calls
// stopRecorder, on both the success and the error path.
func shutdownServer(srv shutdowner, timeout time.Duration, stopRecorder context.CancelFunc) error {
	defer stopRecorder()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func (a *app) close() { _ = a.logger.Sync() }

// bootstrap loads .env files, configuration and the logger for env.
func bootstrap(env string) (*app, error) {
	if err := config.LoadDotEnv(env); err != nil {
		return nil, err
	}

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &app{cfg: cfg, logger: logger}, nil
}

func newBackend(cfg config.Config) (*opensearch.Store, error) {
	store, err := opensearch.NewStore(opensearch.Config{
		URL:            cfg.Backend.URL,
		Username:       cfg.Backend.Username,
		Password:       cfg.Backend.Password,
		ConnectTimeout: time.Duration(cfg.Backend.ConnectTimeoutSec) * time.Second,
		RequestTimeout: time.Duration(cfg.Backend.RequestTimeoutSec) * time.Second,
		Refresh:        cfg.Backend.Refresh,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend store: %w", err)
	}
	return store, nil
}

func newIndexService(cfg config.Config, store *opensearch.Store, logger *zap.Logger) (*indexuc.Service, error) {
	def, err := indexrepo.Definition(cfg.Backend.Index, cfg.Backend.Shards, cfg.Backend.Replicas)
	if err != nil {
		return nil, fmt.Errorf("index definition: %w", err)
	}
	return indexuc.New(indexrepo.New(store, def), logger), nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("docsearch"),
		kong.Description("Tenant-isolated document search API."),
		kong.UsageOnError(),
		kong.Vars{"env": config.GetEnv()},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
