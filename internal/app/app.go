// Package app assembles the process-wide dependency graph for the
// optimizer worker: configuration, database pool, worker queue, audit
// log, and the routing provider stack (rate limiter, distance-matrix
// cache, circuit breaker). cmd/worker constructs exactly one Context
// and runs the Orchestrator that New builds into it.
package app

import (
	"context"
	"fmt"

	"github.com/fleetops/optimizer/internal/loader"
	"github.com/fleetops/optimizer/internal/orchestrator"
	"github.com/fleetops/optimizer/internal/persister"
	"github.com/fleetops/optimizer/internal/repository"
	"github.com/fleetops/optimizer/internal/routingprovider"
	"github.com/fleetops/optimizer/internal/store"
	"github.com/fleetops/optimizer/pkg/audit"
	"github.com/fleetops/optimizer/pkg/cache"
	"github.com/fleetops/optimizer/pkg/config"
	"github.com/fleetops/optimizer/pkg/database"
	"github.com/fleetops/optimizer/pkg/queue"
	"github.com/fleetops/optimizer/pkg/ratelimit"
)

// Context bundles every long-lived dependency the worker process needs.
// Everything in it is constructed once at startup and shared across the
// whole worker pool.
type Context struct {
	Config       *config.Config
	DB           *database.PostgresDB
	Queue        *queue.Queue
	AuditLogger  audit.Logger
	RateLimiter  ratelimit.Limiter
	Cache        cache.Cache
	Provider     routingprovider.Provider
	Orchestrator *orchestrator.Orchestrator
}

// Close releases every resource that owns a connection or goroutine.
func (c *Context) Close() {
	if c.Queue != nil {
		_ = c.Queue.Close()
	}
	if c.RateLimiter != nil {
		_ = c.RateLimiter.Close()
	}
	if c.AuditLogger != nil {
		_ = c.AuditLogger.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// New wires every component from cfg and returns a ready-to-run Context.
// Construction order matters: the routing provider's resilience stack
// (rate limiter, matrix cache) must exist before the provider itself,
// and the provider must exist before the orchestrator.
func New(ctx context.Context, cfg *config.Config) (*Context, error) {
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	q, err := queue.New(cfg.Queue)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to queue: %w", err)
	}

	auditLogger, err := audit.New(toAuditConfig(cfg.Audit))
	if err != nil {
		db.Close()
		_ = q.Close()
		return nil, fmt.Errorf("init audit logger: %w", err)
	}
	audit.SetGlobal(auditLogger)

	limiter, err := ratelimit.New(toRateLimitConfig(cfg.RateLimit))
	if err != nil {
		db.Close()
		_ = q.Close()
		return nil, fmt.Errorf("init rate limiter: %w", err)
	}

	backend, err := cache.New(toCacheOptions(cfg.Cache))
	if err != nil {
		db.Close()
		_ = q.Close()
		_ = limiter.Close()
		return nil, fmt.Errorf("init matrix cache: %w", err)
	}
	matrixCache := cache.NewMatrixCache(backend, cfg.Cache.DefaultTTL)

	providerCfg := routingprovider.Config{
		APIKey:         cfg.Routing.APIKey,
		Timeout:        cfg.Routing.Timeout,
		SyncThreshold:  cfg.Routing.SyncThreshold,
		AsyncPollEvery: cfg.Routing.AsyncPollEvery,
		AsyncMaxPolls:  cfg.Routing.AsyncMaxPolls,
	}
	provider, err := routingprovider.NewProvider(cfg.Routing.Provider, providerCfg, cfg.Routing.CircuitBreaker, limiter, matrixCache)
	if err != nil {
		db.Close()
		_ = q.Close()
		_ = limiter.Close()
		return nil, fmt.Errorf("init routing provider: %w", err)
	}

	l := loader.New(
		repository.NewDepotRepository(db),
		repository.NewJobRepository(db),
		repository.NewDriverRepository(db),
		repository.NewVehicleRepository(db),
	)
	requestStore := store.New(db)
	routePersister := persister.New(db)

	o := orchestrator.New(q, requestStore, l, provider, routePersister, orchestrator.Options{
		MaxWorkers:    cfg.Worker.MaxWorkers,
		JobTimeout:    cfg.Worker.JobTimeout,
		SolveBudget:   cfg.Worker.DefaultBudget,
		SweepInterval: cfg.Worker.SweepInterval,
	})

	return &Context{
		Config:       cfg,
		DB:           db,
		Queue:        q,
		AuditLogger:  auditLogger,
		RateLimiter:  limiter,
		Cache:        backend,
		Provider:     provider,
		Orchestrator: o,
	}, nil
}

func toAuditConfig(c config.AuditConfig) *audit.Config {
	return &audit.Config{
		Enabled:     c.Enabled,
		Backend:     c.Backend,
		FilePath:    c.FilePath,
		BufferSize:  c.BufferSize,
		FlushPeriod: c.FlushPeriod,
	}
}

func toRateLimitConfig(c config.RateLimitConfig) *ratelimit.Config {
	return &ratelimit.Config{
		Requests:  c.Requests,
		Window:    c.Window,
		Strategy:  "token_bucket",
		Backend:   "memory",
		BurstSize: c.BurstSize,
	}
}

func toCacheOptions(c config.CacheConfig) *cache.Options {
	opts := &cache.Options{
		Backend:    cache.BackendMemory,
		DefaultTTL: c.DefaultTTL,
	}
	if c.Enabled {
		opts.Backend = cache.BackendRedis
		opts.RedisAddr = c.Address()
		opts.RedisPassword = c.Password
		opts.RedisDB = c.DB
	}
	return opts
}
