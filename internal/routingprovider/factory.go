package routingprovider

import (
	"fmt"

	"github.com/fleetops/optimizer/pkg/apperror"
	"github.com/fleetops/optimizer/pkg/cache"
	"github.com/fleetops/optimizer/pkg/ratelimit"
)

// NewProvider selects and constructs the active routing provider adapter
// for the process, wrapped in the shared resilience stack. Selection is
// process-wide at startup (§4.1); there is no per-request provider switch.
func NewProvider(name string, cfg Config, cbCfg CircuitBreakerConfig, limiter ratelimit.Limiter, matrixCache *cache.MatrixCache) (Provider, error) {
	if cfg.SyncThreshold <= 0 {
		cfg.SyncThreshold = DefaultSyncThreshold
	}

	var inner Provider
	switch name {
	case "geoapify":
		inner = NewGeoapifyProvider(cfg)
	case "graphhopper":
		inner = NewGraphHopperProvider(cfg)
	case "tomtom":
		inner = NewTomTomProvider(cfg)
	default:
		return nil, apperror.New(apperror.CodeInvalidArgument, fmt.Sprintf("unknown routing provider %q", name)).
			WithField("routing.provider")
	}

	return WrapResilient(inner, cbCfg, limiter, matrixCache), nil
}
