// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "OPTIMIZER_"
	configEnvVar = "CONFIG_PATH"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/optimizer/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. Environment variables (самый высокий)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// Файл не обязателен, логируем warning
		fmt.Printf("Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults загружает значения по умолчанию
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "optimizer",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "optimizer",
		"metrics.subsystem": "",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "optimizer",
		"tracing.sample_rate":  0.1,

		// Database
		"database.driver":             "postgres",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "optimizer",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10, // base pool size
		"database.max_idle_conns":     20, // overflow
		"database.conn_max_lifetime":  time.Hour,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.checkout_timeout":   30 * time.Second,
		"database.migrations_path":    "migrations",
		"database.auto_migrate":       true,

		// Cache (distance-matrix memoization)
		"cache.enabled":     true,
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 15 * time.Minute,
		"cache.pool_size":   10,

		// Queue
		"queue.host":               "localhost",
		"queue.port":               6379,
		"queue.db":                 1,
		"queue.name":               "optimization_requests",
		"queue.visibility_timeout": 5 * time.Minute,
		"queue.reclaim_interval":   30 * time.Second,

		// Worker
		"worker.max_workers":    4,
		"worker.job_timeout":    5 * time.Minute,
		"worker.default_budget": 30 * time.Second,
		"worker.sweep_interval": 30 * time.Second,

		// Routing provider
		"routing.provider":                      "geoapify",
		"routing.api_key":                       "",
		"routing.timeout":                       10 * time.Second,
		"routing.sync_threshold":                14,
		"routing.async_poll_every":              2 * time.Second,
		"routing.async_max_polls":               30,
		"routing.circuit_breaker.max_requests_half_open": 1,
		"routing.circuit_breaker.open_timeout":           30 * time.Second,
		"routing.circuit_breaker.failure_ratio":          0.6,
		"routing.circuit_breaker.min_requests":           5,

		// Rate limit
		"rate_limit.enabled":          true,
		"rate_limit.requests":         50,
		"rate_limit.window":           time.Second,
		"rate_limit.burst_size":       10,
		"rate_limit.cleanup_interval": 5 * time.Minute,

		// Audit
		"audit.enabled":      true,
		"audit.backend":      "stdout",
		"audit.buffer_size":  1000,
		"audit.flush_period": 5 * time.Second,

		// Export
		"export.xlsx_enabled": false,
		"export.pdf_enabled":  false,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile загружает конфигурацию из файла
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv загружает конфигурацию из переменных окружения
func (l *Loader) loadEnv() error {
	aliases := map[string]string{
		"OPTIMIZATION_MAX_WORKERS": "worker.max_workers",
		"OPTIMIZATION_QUEUE_NAME":  "queue.name",
		"ROUTING_PROVIDER":         "routing.provider",
	}
	if err := l.k.Load(env.Provider("", ".", func(s string) string {
		return aliases[s]
	}), nil); err != nil {
		return err
	}
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		// OPTIMIZER_WORKER_MAX_WORKERS -> worker.max_workers
		return strings.Replace(
			strings.ToLower(
				strings.TrimPrefix(s, l.envPrefix),
			),
			"_", ".", 1,
		)
	}), nil)
}

// MustLoad загружает конфигурацию или паникует
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load - удобная функция для загрузки с дефолтными настройками
func Load() (*Config, error) {
	return NewLoader().Load()
}
