package core

import (
	"context"
	"encoding/json"
	"math"

	"github.com/stayscout/stayscout/internal/cache"
	"github.com/stayscout/stayscout/internal/config"
	"github.com/stayscout/stayscout/internal/core/agent"
	"github.com/stayscout/stayscout/internal/provider"
)

// Named pipeline constants, kept together so the fallback arithmetic and
// cutoffs stay auditable in one place.
const (
	// MaxCandidates bounds a single request; candidates are processed
	// sequentially so the bound keeps latency predictable.
	MaxCandidates = 10
	// BBoxMargin expands the candidate bounding box for the rent overlay
	// (0.02 degrees, roughly 2.2 km).
	BBoxMargin = 0.02
	// TopGridCells is how many overlay cells (densest first) become areas.
	TopGridCells = 12
	// TopAreaMarkers is how many ranked areas become map markers.
	TopAreaMarkers = 6
	// MaxProsCons truncates merged pros/cons lists per candidate.
	MaxProsCons = 6
	// RentPointsLimit caps the listing sample used for area evidence.
	RentPointsLimit = 50
)

// Engine runs the preference-weighted multi-signal ranking pipeline. All
// state except the signal cache is request-scoped.
type Engine struct {
	Cache    cache.SignalCache
	Provider provider.Caller
	Runner   *agent.Runner
	Pipeline config.PipelineConfig
}

func NewEngine(c cache.SignalCache, p provider.Caller, r *agent.Runner, pcfg config.PipelineConfig) *Engine {
	return &Engine{
		Cache:    c,
		Provider: p,
		Runner:   r,
		Pipeline: pcfg,
	}
}

// fetchSignal resolves one signal payload cache-first. The cache is
// advisory: a miss falls through to the provider and the result is stored
// afterward; a concurrent duplicate fetch for the same key is acceptable.
func (e *Engine) fetchSignal(ctx context.Context, tool string, lat, lon float64, params map[string]interface{}) (json.RawMessage, error) {
	if data, ok := e.Cache.Get(ctx, tool, lat, lon, params); ok {
		return data, nil
	}

	data, err := e.Provider.Call(ctx, tool, params)
	if err != nil {
		return nil, err
	}
	_ = e.Cache.Set(ctx, tool, lat, lon, params, data)
	return data, nil
}

// haversineKM is the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371.0
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dphi := (lat2 - lat1) * math.Pi / 180
	dlambda := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dphi/2)*math.Sin(dphi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dlambda/2)*math.Sin(dlambda/2)
	return 2 * r * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
