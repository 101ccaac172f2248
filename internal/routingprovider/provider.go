// Package routingprovider implements adapters against third-party routing
// REST APIs, returning travel-cost matrices and polyline geometry for the
// solver (see §4.1 of the optimization design).
//
// Each adapter is a stateless translation from (coordinates, profile) to the
// provider's wire format; selection of the active provider is process-wide
// and happens once at startup via NewProvider.
package routingprovider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/domain"
)

// UnreachableCost is the sentinel cost used for matrix cells the provider
// could not route between; the solver treats it as arbitrarily expensive.
const UnreachableCost = 1<<31 - 1 // MAX_INT32

// Matrix is a pair of square cost tables returned by a Provider. Row i,
// column j is the cost from location i to location j; the diagonal is
// always 0.
type Matrix struct {
	Distances [][]float64 // meters
	Durations [][]float64 // seconds
}

// Provider is the capability every routing backend must implement: a
// distance/duration matrix and an optional polyline for an ordered list of
// points, both for a given vehicle profile.
type Provider interface {
	// Name identifies the provider for metrics and logs (e.g. "geoapify").
	Name() string

	// Matrix returns distance and duration tables for the given ordered
	// points under the given profile. points[0] is always the depot.
	Matrix(ctx context.Context, points []domain.Point, profile string) (*Matrix, error)

	// Polyline returns an encoded route geometry through the ordered
	// points, or nil if the provider could not produce one. Failure here
	// is non-fatal to the caller (§4.5.5): return (nil, nil) rather than
	// an error whenever the geometry is merely unavailable.
	Polyline(ctx context.Context, points []domain.Point, profile string) (*string, error)
}

// ProfileFor maps a vehicle type to a provider profile name using the fixed
// table in §4.1. Providers that use different vocabulary override individual
// entries in their own profile table.
func ProfileFor(vehicleType domain.VehicleType, table map[domain.VehicleType]string) string {
	if profile, ok := table[vehicleType]; ok {
		return profile
	}
	return "drive"
}

// DefaultProfileTable is the profile mapping shared by every adapter unless
// a provider's wire vocabulary forces an override.
var DefaultProfileTable = map[domain.VehicleType]string{
	domain.VehicleCar:     "drive",
	domain.VehicleVan:     "drive",
	domain.VehicleTruck:   "truck",
	domain.VehicleBike:    "bicycle",
	domain.VehicleScooter: "bicycle",
	domain.VehicleFoot:    "walk",
}

// DefaultSyncThreshold is the number of locations (1+|jobs|) at or below which the
// synchronous matrix endpoint is used in preference to the async
// submit/poll/download flow (§4.1).
const DefaultSyncThreshold = 14

// Config carries the tunables every adapter needs regardless of provider.
type Config struct {
	APIKey        string
	Timeout       time.Duration
	SyncThreshold int
	AsyncPollEvery time.Duration
	AsyncMaxPolls  int
}

var (
	// ErrAsyncTimedOut is returned when an async matrix job did not finish
	// within AsyncMaxPolls attempts.
	ErrAsyncTimedOut = errors.New("routing provider: async matrix job did not complete in time")
)

// wrapHTTPError converts a transport-level failure into the domain
// RoutingProviderError kind (§7); any non-2xx response or timeout from a
// provider is terminal for the request that triggered it.
func wrapHTTPError(provider string, operation string, err error) error {
	return apperror.New(apperror.CodeRoutingProvider, fmt.Sprintf("%s: %s request failed: %v", provider, operation, err)).
		WithField("provider", provider).
		WithField("operation", operation)
}

func squareMatrix(size int) [][]float64 {
	m := make([][]float64, size)
	for i := range m {
		m[i] = make([]float64, size)
	}
	return m
}
