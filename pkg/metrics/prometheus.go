package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// Метрики очереди запросов
	QueueDepth     prometheus.Gauge
	RequestsClaimed *prometheus.CounterVec

	// Метрики пула воркеров
	WorkersBusy   prometheus.Gauge
	WorkersTotal  prometheus.Gauge

	// Метрики решателя
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	JobsAssignedTotal    *prometheus.HistogramVec
	JobsUnassignedTotal  *prometheus.HistogramVec
	RouteDistanceMeters  *prometheus.HistogramVec

	// Метрики провайдера маршрутизации
	RoutingProviderCalls    *prometheus.CounterVec
	RoutingProviderDuration *prometheus.HistogramVec
	CircuitBreakerState     *prometheus.GaugeVec

	// Системные метрики
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "queue_depth",
				Help:      "Number of optimization requests currently queued",
			},
		),

		RequestsClaimed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_claimed_total",
				Help:      "Total number of optimization requests claimed by a worker",
			},
			[]string{"status"},
		),

		WorkersBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "workers_busy",
				Help:      "Current number of workers processing a request",
			},
		),

		WorkersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "workers_total",
				Help:      "Configured size of the worker pool",
			},
		),

		SolveOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_operations_total",
				Help:      "Total number of solve operations",
			},
			[]string{"status"}, // completed, infeasible, timeout, failed
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Wall-clock duration of solve operations",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 15, 30, 60, 120},
			},
			[]string{"mode"}, // sync, async
		),

		JobsAssignedTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_assigned_total",
				Help:      "Number of jobs assigned to a route per solve",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{},
		),

		JobsUnassignedTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_unassigned_total",
				Help:      "Number of jobs left unassigned per solve",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"reason"},
		),

		RouteDistanceMeters: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_distance_meters",
				Help:      "Total distance of a constructed route",
				Buckets:   []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000},
			},
			[]string{},
		),

		RoutingProviderCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routing_provider_calls_total",
				Help:      "Total number of outbound routing provider calls",
			},
			[]string{"provider", "operation", "status"},
		),

		RoutingProviderDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routing_provider_duration_seconds",
				Help:      "Duration of outbound routing provider calls",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "operation"},
		),

		CircuitBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "circuit_breaker_state",
				Help:      "Routing provider circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("optimizer", "")
	}
	return defaultMetrics
}

// RecordRequestClaimed записывает факт получения запроса воркером из очереди.
func (m *Metrics) RecordRequestClaimed(status string) {
	m.RequestsClaimed.WithLabelValues(status).Inc()
}

// RecordSolveOperation записывает метрики операции решения.
func (m *Metrics) RecordSolveOperation(mode, status string, duration time.Duration, assigned, unassigned int, totalDistanceMeters float64) {
	m.SolveOperationsTotal.WithLabelValues(status).Inc()
	m.SolveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.JobsAssignedTotal.WithLabelValues().Observe(float64(assigned))
	m.RouteDistanceMeters.WithLabelValues().Observe(totalDistanceMeters)
}

// RecordUnassigned записывает число неразмещённых задач с причиной.
func (m *Metrics) RecordUnassigned(reason string, count int) {
	m.JobsUnassignedTotal.WithLabelValues(reason).Observe(float64(count))
}

// RecordRoutingProviderCall записывает метрики вызова провайдера маршрутизации.
func (m *Metrics) RecordRoutingProviderCall(provider, operation, status string, duration time.Duration) {
	m.RoutingProviderCalls.WithLabelValues(provider, operation, status).Inc()
	m.RoutingProviderDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// SetCircuitBreakerState записывает текущее состояние circuit breaker'а.
func (m *Metrics) SetCircuitBreakerState(provider string, state int) {
	m.CircuitBreakerState.WithLabelValues(provider).Set(float64(state))
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write failure isn't actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
