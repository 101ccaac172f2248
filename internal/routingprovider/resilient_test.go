package routingprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleetops/optimizer/pkg/cache"
	"github.com/fleetops/optimizer/pkg/domain"
)

type fakeProvider struct {
	name       string
	matrixErr  error
	matrixCall int
	polyline   *string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Matrix(ctx context.Context, points []domain.Point, profile string) (*Matrix, error) {
	f.matrixCall++
	if f.matrixErr != nil {
		return nil, f.matrixErr
	}
	return &Matrix{Distances: squareMatrix(len(points)), Durations: squareMatrix(len(points))}, nil
}

func (f *fakeProvider) Polyline(ctx context.Context, points []domain.Point, profile string) (*string, error) {
	return f.polyline, nil
}

func defaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5}
}

func TestResilientProvider_Matrix_Success(t *testing.T) {
	inner := &fakeProvider{name: "fake"}
	p := WrapResilient(inner, defaultCBConfig(), nil, nil)

	_, err := p.Matrix(t.Context(), []domain.Point{{}, {}}, "car")
	if err != nil {
		t.Fatalf("Matrix() error = %v", err)
	}
	if inner.matrixCall != 1 {
		t.Errorf("expected 1 call to inner provider, got %d", inner.matrixCall)
	}
}

func TestResilientProvider_Matrix_Retries(t *testing.T) {
	inner := &fakeProvider{name: "fake", matrixErr: errors.New("transient")}
	p := WrapResilient(inner, defaultCBConfig(), nil, nil)

	_, err := p.Matrix(t.Context(), []domain.Point{{}, {}}, "car")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.matrixCall < 2 {
		t.Errorf("expected multiple retry attempts, got %d", inner.matrixCall)
	}
}

func TestResilientProvider_Matrix_CacheHit(t *testing.T) {
	inner := &fakeProvider{name: "fake"}
	memCache := cache.MustNew(cache.DefaultOptions())
	matrixCache := cache.NewMatrixCache(memCache, time.Minute)
	p := WrapResilient(inner, defaultCBConfig(), nil, matrixCache)

	points := []domain.Point{{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}}
	if _, err := p.Matrix(t.Context(), points, "car"); err != nil {
		t.Fatalf("first Matrix() error = %v", err)
	}
	if _, err := p.Matrix(t.Context(), points, "car"); err != nil {
		t.Fatalf("second Matrix() error = %v", err)
	}
	if inner.matrixCall != 1 {
		t.Errorf("expected cache to absorb the second call, inner was called %d times", inner.matrixCall)
	}
}

func TestResilientProvider_Polyline_NonFatal(t *testing.T) {
	inner := &fakeProvider{name: "fake", polyline: nil}
	p := WrapResilient(inner, defaultCBConfig(), nil, nil)

	poly, err := p.Polyline(t.Context(), []domain.Point{{}, {}}, "car")
	if err != nil {
		t.Fatalf("Polyline() error = %v, want nil", err)
	}
	if poly != nil {
		t.Error("expected nil polyline")
	}
}

func TestResilientProvider_Name(t *testing.T) {
	inner := &fakeProvider{name: "fake"}
	p := WrapResilient(inner, defaultCBConfig(), nil, nil)
	if p.Name() != "fake" {
		t.Errorf("Name() = %q, want fake", p.Name())
	}
}
