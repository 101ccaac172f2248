// Package config defines the process-wide configuration surface for the
// optimizer core: routing provider selection, database, queue, worker pool
// sizing, and the ambient logging/metrics/tracing/audit settings.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure, assembled by Loader from
// defaults, an optional YAML file, and environment variables.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Queue     QueueConfig     `koanf:"queue"`
	Worker    WorkerConfig    `koanf:"worker"`
	Routing   RoutingConfig   `koanf:"routing"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Audit     AuditConfig     `koanf:"audit"`
	Export    ExportConfig    `koanf:"export"`
}

// AppConfig holds process identity settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig configures the slog-based logger.
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`     // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // postgres
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`    // base pool size, default 10
	MaxIdleConns    int           `koanf:"max_idle_conns"`    // overflow, default 20
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"` // recycle, default 1h
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	CheckoutTimeout time.Duration `koanf:"checkout_timeout"` // default 30s
	MigrationsPath  string        `koanf:"migrations_path"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// DSN returns a libpq-style connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode,
	)
}

// CacheConfig configures the Redis-backed distance-matrix memoization cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	PoolSize   int           `koanf:"pool_size"`
}

// Address returns the Redis address for the cache connection.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// QueueConfig configures the Redis-list-backed worker queue.
type QueueConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Password          string        `koanf:"password"`
	DB                int           `koanf:"db"`
	Name              string        `koanf:"name"`               // OPTIMIZATION_QUEUE_NAME
	VisibilityTimeout time.Duration `koanf:"visibility_timeout"` // default 5m, matches job timeout
	ReclaimInterval   time.Duration `koanf:"reclaim_interval"`
}

// Address returns the Redis address for the queue connection.
func (q QueueConfig) Address() string {
	return fmt.Sprintf("%s:%d", q.Host, q.Port)
}

// WorkerConfig sizes the Orchestrator's worker pool.
type WorkerConfig struct {
	MaxWorkers     int           `koanf:"max_workers"` // OPTIMIZATION_MAX_WORKERS, default 4
	JobTimeout     time.Duration `koanf:"job_timeout"` // default 5m
	DefaultBudget  time.Duration `koanf:"default_budget"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
}

// RoutingConfig selects and configures the routing provider adapter.
type RoutingConfig struct {
	Provider       string               `koanf:"provider"` // geoapify, graphhopper, tomtom
	APIKey         string               `koanf:"api_key"`
	Timeout        time.Duration        `koanf:"timeout"`
	SyncThreshold  int                  `koanf:"sync_threshold"` // 1+|jobs| <= threshold uses sync matrix
	AsyncPollEvery time.Duration        `koanf:"async_poll_every"`
	AsyncMaxPolls  int                  `koanf:"async_max_polls"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// CircuitBreakerConfig configures the gobreaker wrapping outbound provider calls.
type CircuitBreakerConfig struct {
	MaxRequestsHalfOpen uint32        `koanf:"max_requests_half_open"`
	OpenTimeout         time.Duration `koanf:"open_timeout"`
	FailureRatio        float64       `koanf:"failure_ratio"`
	MinRequests         uint32        `koanf:"min_requests"`
}

// RateLimitConfig configures the token-bucket limiter guarding outbound
// routing-provider calls.
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// AuditConfig configures the lifecycle-transition audit log.
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"` // stdout, file
	FilePath    string        `koanf:"file_path"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// ExportConfig toggles the optional route-export helpers.
type ExportConfig struct {
	XLSXEnabled bool `koanf:"xlsx_enabled"`
	PDFEnabled  bool `koanf:"pdf_enabled"`
}

// Validate checks the configuration for internal consistency, aborting
// process startup on a missing required key.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validProviders := map[string]bool{"geoapify": true, "graphhopper": true, "tomtom": true}
	if !validProviders[c.Routing.Provider] {
		errs = append(errs, fmt.Sprintf("routing.provider must be one of: geoapify, graphhopper, tomtom, got %q", c.Routing.Provider))
	}
	if c.Routing.APIKey == "" {
		errs = append(errs, fmt.Sprintf("routing.api_key is required for provider %q", c.Routing.Provider))
	}

	if c.Worker.MaxWorkers <= 0 {
		errs = append(errs, "worker.max_workers must be positive")
	}

	if c.Database.DSN() == "" {
		errs = append(errs, "database configuration is incomplete")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the process is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the process is running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
