package cache

import (
	"context"
	"encoding/json"
	"time"
)

// MatrixCache memoizes routing-provider distance/duration matrices keyed by
// the ordered coordinate list and travel profile, sparing two requests that
// share a depot/job set from paying the provider twice.
type MatrixCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedMatrix is the JSON-serializable form of a routing provider matrix
// result, row-major over the same coordinate ordering used to build the key.
type CachedMatrix struct {
	Profile    string      `json:"profile"`
	Size       int         `json:"size"`
	Durations  [][]float64 `json:"durations"` // seconds
	Distances  [][]float64 `json:"distances"` // meters
	ComputedAt time.Time   `json:"computed_at"`
}

// NewMatrixCache creates a cache for routing-provider matrix results.
func NewMatrixCache(cache Cache, defaultTTL time.Duration) *MatrixCache {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	return &MatrixCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached matrix for the given coordinate list and profile,
// if present and still valid.
func (mc *MatrixCache) Get(ctx context.Context, coords []Coordinate, profile string) (*CachedMatrix, bool, error) {
	key := BuildMatrixKey(MatrixHash(coords, profile))

	data, err := mc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedMatrix
	if err := json.Unmarshal(data, &result); err != nil {
		// Corrupted cache entry, drop it; deletion failure is non-fatal.
		_ = mc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores a matrix result under the coordinate/profile key.
func (mc *MatrixCache) Set(ctx context.Context, coords []Coordinate, profile string, result *CachedMatrix, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = mc.defaultTTL
	}

	key := BuildMatrixKey(MatrixHash(coords, profile))
	result.ComputedAt = time.Now()
	result.Profile = profile
	result.Size = len(coords)

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return mc.cache.Set(ctx, key, data, ttl)
}

// Invalidate removes the cached matrix for a specific coordinate set.
func (mc *MatrixCache) Invalidate(ctx context.Context, coords []Coordinate, profile string) error {
	key := BuildMatrixKey(MatrixHash(coords, profile))
	return mc.cache.Delete(ctx, key)
}

// InvalidateAll removes every cached matrix entry.
func (mc *MatrixCache) InvalidateAll(ctx context.Context) (int64, error) {
	return mc.cache.DeleteByPattern(ctx, "matrix:*")
}
