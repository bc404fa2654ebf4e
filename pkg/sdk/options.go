package docsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	url      string
	username string
	password string

	index    string
	shards   int
	replicas int
	refresh  string

	connectTimeout   time.Duration
	requestTimeout   time.Duration
	readinessTimeout time.Duration

	rateLimit int
	clock     func() time.Time

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		index:            defaultIndex,
		shards:           1,
		rateLimit:        defaultRateLimit,
		readinessTimeout: defaultReadinessTimeout,
		clock:            time.Now,
	}
}

// WithOpenSearch sets the cluster base URL, e.g. http://localhost:9200.
func WithOpenSearch(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.url = url
	})
}

// WithBasicAuth sets HTTP basic credentials for the cluster.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithIndex overrides the index name. Default: "documents".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithShards sets shard and replica counts used when the index is created.
// Default: 1 shard, 0 replicas.
func WithShards(shards, replicas int) Option {
	return optionFunc(func(c *clientConfig) {
		c.shards = shards
		c.replicas = replicas
	})
}

// WithRefresh sets the refresh policy for writes: "", "true" or "wait_for".
func WithRefresh(policy string) Option {
	return optionFunc(func(c *clientConfig) {
		c.refresh = policy
	})
}

// WithTimeouts sets connect and per-request timeouts.
// Defaults: 5s connect, 10s request.
func WithTimeouts(connect, request time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.connectTimeout = connect
		c.requestTimeout = request
	})
}

// WithReadinessTimeout bounds the initial wait for the cluster. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithRateLimit sets the per-tenant request limit per minute.
// Zero or negative disables admission control. Default: 120.
func WithRateLimit(perMinute int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimit = perMinute
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

func withClock(clock func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.clock = clock
	})
}
