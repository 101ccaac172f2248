package cache

import (
	"context"
	"testing"
	"time"
)

func TestMatrixCache_SetGet(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	coords := []Coordinate{
		{Lat: 52.370, Lng: 4.895},
		{Lat: 52.380, Lng: 4.900},
		{Lat: 52.390, Lng: 4.910},
	}

	result := &CachedMatrix{
		Durations: [][]float64{
			{0, 120, 340},
			{120, 0, 220},
			{340, 220, 0},
		},
		Distances: [][]float64{
			{0, 1500, 4200},
			{1500, 0, 2800},
			{4200, 2800, 0},
		},
	}

	if err := matrixCache.Set(ctx, coords, "driving", result, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	got, found, err := matrixCache.Get(ctx, coords, "driving")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if !found {
		t.Fatal("expected to find cached matrix")
	}

	if got.Size != 3 {
		t.Errorf("expected size 3, got %d", got.Size)
	}
	if got.Durations[0][1] != 120 {
		t.Errorf("expected duration 120, got %f", got.Durations[0][1])
	}
}

func TestMatrixCache_GetNotFound(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	coords := []Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}

	result, found, err := matrixCache.Get(ctx, coords, "driving")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
	if result != nil {
		t.Error("expected nil result")
	}
}

func TestMatrixCache_DifferentProfile(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	coords := []Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}

	result := &CachedMatrix{Durations: [][]float64{{0, 10}, {10, 0}}}

	matrixCache.Set(ctx, coords, "driving", result, 0)

	_, found, _ := matrixCache.Get(ctx, coords, "bicycle")
	if found {
		t.Error("should not find result cached under a different profile")
	}
}

func TestMatrixCache_Invalidate(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	coords := []Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}

	result := &CachedMatrix{Durations: [][]float64{{0, 10}, {10, 0}}}
	matrixCache.Set(ctx, coords, "driving", result, 0)

	if err := matrixCache.Invalidate(ctx, coords, "driving"); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}

	_, found, _ := matrixCache.Get(ctx, coords, "driving")
	if found {
		t.Error("expected cache entry to be invalidated")
	}
}

func TestMatrixCache_InvalidateAll(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()

	coordsA := []Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	coordsB := []Coordinate{{Lat: 3, Lng: 3}, {Lat: 4, Lng: 4}}

	result := &CachedMatrix{Durations: [][]float64{{0, 10}, {10, 0}}}

	matrixCache.Set(ctx, coordsA, "driving", result, 0)
	matrixCache.Set(ctx, coordsB, "driving", result, 0)

	count, err := matrixCache.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("failed to invalidate all: %v", err)
	}

	if count != 2 {
		t.Errorf("expected 2 invalidated, got %d", count)
	}
}
