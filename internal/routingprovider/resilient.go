package routingprovider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"github.com/fleetops/optimizer/pkg/cache"
	"github.com/fleetops/optimizer/pkg/domain"
	"github.com/fleetops/optimizer/pkg/metrics"
	"github.com/fleetops/optimizer/pkg/ratelimit"
)

// CircuitBreakerConfig mirrors pkg/config.CircuitBreakerConfig without
// importing it, so this package stays free of a config dependency.
type CircuitBreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
}

// resilientProvider wraps a Provider with a circuit breaker, bounded
// retries, an outbound rate limiter, and a matrix cache — every outbound
// call to a third-party routing API goes through here rather than the raw
// adapter, so the orchestrator never has to reason about one provider's
// failure modes.
type resilientProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*Matrix]
	limiter ratelimit.Limiter
	matrixCache *cache.MatrixCache
	metrics *metrics.Metrics
}

// WrapResilient composes the resilience stack around a raw Provider.
func WrapResilient(inner Provider, cbCfg CircuitBreakerConfig, limiter ratelimit.Limiter, matrixCache *cache.MatrixCache) Provider {
	breaker := gobreaker.NewCircuitBreaker[*Matrix](gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: cbCfg.MaxRequests,
		Interval:    cbCfg.Interval,
		Timeout:     cbCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cbCfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.Get().SetCircuitBreakerState(name, int(to))
		},
	})

	return &resilientProvider{
		inner:       inner,
		breaker:     breaker,
		limiter:     limiter,
		matrixCache: matrixCache,
		metrics:     metrics.Get(),
	}
}

func (p *resilientProvider) Name() string { return p.inner.Name() }

// Matrix checks the cache first, then runs the call through the rate
// limiter, circuit breaker, and a bounded exponential backoff retry.
func (p *resilientProvider) Matrix(ctx context.Context, points []domain.Point, profile string) (*Matrix, error) {
	coords := make([]cache.Coordinate, len(points))
	for i, pt := range points {
		coords[i] = cache.Coordinate{Lat: pt.Lat, Lng: pt.Lng}
	}

	if p.matrixCache != nil {
		if cached, found, err := p.matrixCache.Get(ctx, coords, profile); err == nil && found {
			return &Matrix{Distances: cached.Distances, Durations: cached.Durations}, nil
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.inner.Name()); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	result, err := backoff.Retry(ctx, func() (*Matrix, error) {
		return p.breaker.Execute(func() (*Matrix, error) {
			return p.inner.Matrix(ctx, points, profile)
		})
	}, backoff.WithMaxTries(3), backoff.WithBackOff(backoff.NewExponentialBackOff()))

	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordRoutingProviderCall(p.inner.Name(), "matrix", status, time.Since(start))

	if err != nil {
		return nil, err
	}

	if p.matrixCache != nil {
		_ = p.matrixCache.Set(ctx, coords, profile, &cache.CachedMatrix{
			Profile:   profile,
			Size:      len(points),
			Durations: result.Durations,
			Distances: result.Distances,
		}, 0)
	}

	return result, nil
}

// Polyline is guarded by the same outbound rate limiter as Matrix since both
// share the provider's quota, but does not trip the circuit breaker: a
// missing polyline is non-fatal to the caller (§4.5.5), so a string of
// polyline failures should not mark the provider down for matrix calls too.
func (p *resilientProvider) Polyline(ctx context.Context, points []domain.Point, profile string) (*string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.inner.Name()); err != nil {
			return nil, nil //nolint:nilerr // polyline failure is always non-fatal, §4.5.5
		}
	}

	start := time.Now()
	result, err := p.inner.Polyline(ctx, points, profile)
	status := "ok"
	if err != nil || result == nil {
		status = "error"
	}
	p.metrics.RecordRoutingProviderCall(p.inner.Name(), "polyline", status, time.Since(start))

	if err != nil {
		return nil, nil //nolint:nilerr
	}
	return result, nil
}
