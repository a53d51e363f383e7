package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/stayscout/stayscout/internal/core/agent"
	"github.com/stayscout/stayscout/internal/core/model"
	"github.com/stayscout/stayscout/internal/provider"
)

// RankAreas derives an area-level ranking from the rent-grid overlay. This
// step is optional by design: if the overlay cannot be fetched the result is
// (nil, nil) and the response degrades to candidate-only ranking.
func (e *Engine) RankAreas(ctx context.Context, cands []model.Candidate, prefs model.Preferences, bounds *model.Bounds) (*model.AreaResult, error) {
	box := boundsOrDerive(bounds, cands)

	args := map[string]interface{}{
		"bounds": map[string]interface{}{
			"lat_min": box.LatMin,
			"lat_max": box.LatMax,
			"lon_min": box.LonMin,
			"lon_max": box.LonMax,
		},
		"cell_km":   e.Pipeline.CellKM,
		"min_count": e.Pipeline.MinCount,
	}
	if prefs.PriceRange != nil {
		if prefs.PriceRange.Min != nil {
			args["price_min"] = *prefs.PriceRange.Min
		}
		if prefs.PriceRange.Max != nil {
			args["price_max"] = *prefs.PriceRange.Max
		}
	}

	center := model.Center{Lat: (box.LatMin + box.LatMax) / 2, Lon: (box.LonMin + box.LonMax) / 2}
	raw, err := e.fetchSignal(ctx, provider.ToolRentGrid, center.Lat, center.Lon, args)
	if err != nil {
		log.Printf("rent grid overlay unavailable, skipping area ranking: %v", err)
		return nil, nil
	}

	grid := provider.Decode[provider.RentGrid](raw)
	if len(grid.Features) == 0 {
		return nil, nil
	}

	features := topByCount(grid.Features, TopGridCells)

	scored := make([]model.AreaScored, 0, len(features))
	for _, f := range features {
		area, err := e.scoreArea(ctx, f, cands, prefs)
		if err != nil {
			log.Printf("area %s: %v, skipping", f.Properties.CellID, err)
			continue
		}
		scored = append(scored, area)
	}
	if len(scored) == 0 {
		return nil, nil
	}

	ranking := e.Runner.RankAreas(ctx, scored)

	details := make(map[string]model.AreaScored, len(scored))
	for _, a := range scored {
		details[a.AreaID] = a
	}

	result := &model.AreaResult{Details: details}
	for _, entry := range ranking.Ranking {
		if _, ok := details[entry.ID]; !ok {
			log.Printf("area ranking references unknown area %q, dropping entry", entry.ID)
			continue
		}
		if len(result.Markers) == TopAreaMarkers {
			break
		}
		result.Markers = append(result.Markers, model.RankingEntry{
			ID:           entry.ID,
			Rank:         len(result.Markers) + 1,
			Overall:      entry.Overall,
			Summary:      entry.Summary,
			KeyTradeoffs: entry.KeyTradeoffs,
		})
	}

	e.attachListingSamples(ctx, box, result)
	result.Summary = e.Runner.SummarizeAreas(ctx, ranking)

	return result, nil
}

// scoreArea enriches one grid cell with crime/POI signals at its centroid
// and with commute estimates sampled against every candidate coordinate,
// then computes the four sub-scores.
func (e *Engine) scoreArea(ctx context.Context, f provider.GridFeature, cands []model.Candidate, prefs model.Preferences) (model.AreaScored, error) {
	center, err := centroid(f)
	if err != nil {
		return model.AreaScored{}, err
	}

	area := model.AreaCandidate{
		AreaID:   f.Properties.CellID,
		Label:    fmt.Sprintf("Area %s", f.Properties.CellID),
		Center:   center,
		AvgPrice: f.Properties.AvgPrice,
		Count:    f.Properties.Count,
	}

	var (
		crime  provider.CrimeSummary
		pois   provider.POISummary
		avgMin float64
		errs   [3]error
		wg     sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		raw, err := e.fetchSignal(ctx, provider.ToolCrimeSummary, center.Lat, center.Lon, map[string]interface{}{
			"lat":         center.Lat,
			"lon":         center.Lon,
			"radius_m":    prefs.RadiusM,
			"window_days": prefs.WindowDays,
		})
		if err != nil {
			errs[0] = err
			return
		}
		crime = provider.Decode[provider.CrimeSummary](raw)
	}()
	go func() {
		defer wg.Done()
		raw, err := e.fetchSignal(ctx, provider.ToolNearbyPOIs, center.Lat, center.Lon, map[string]interface{}{
			"lat":        center.Lat,
			"lon":        center.Lon,
			"categories": prefs.POICategories,
			"radius_m":   prefs.RadiusM,
		})
		if err != nil {
			errs[1] = err
			return
		}
		pois = provider.Decode[provider.POISummary](raw)
	}()
	go func() {
		defer wg.Done()
		avgMin, errs[2] = e.averageCommute(ctx, center, cands)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return model.AreaScored{}, err
		}
	}

	safety := agent.FallbackSafety(area.AreaID, crime)
	amenities := agent.FallbackAmenities(area.AreaID, pois)
	transit := agent.FallbackTransit(area.AreaID, provider.CommuteEstimate{EstMinutes: avgMin, Source: "commute samples"})

	affordability := affordabilityScore(area.AvgPrice, prefs.PriceRange)

	evidence := []model.Evidence{
		{Metric: "avg_price", Value: area.AvgPrice, Source: "rent-prices"},
		{Metric: "listing_count", Value: area.Count, Source: "rent-prices"},
		{Metric: "avg_commute_minutes", Value: round2(avgMin), Source: "commute samples"},
	}
	evidence = append(evidence, safety.Evidence...)
	evidence = append(evidence, amenities.Evidence...)

	return model.AreaScored{
		AreaCandidate: area,
		Subscores: model.AreaSubscores{
			Affordability: affordability,
			Safety:        safety.Score,
			Transit:       transit.Score,
			Amenities:     amenities.Score,
		},
		Evidence: evidence,
	}, nil
}

// averageCommute fans out one commute-proxy sample from the area centroid to
// every candidate coordinate and averages the estimated minutes.
func (e *Engine) averageCommute(ctx context.Context, center model.Center, cands []model.Candidate) (float64, error) {
	minutes := make([]float64, len(cands))
	errs := make([]error, len(cands))

	var wg sync.WaitGroup
	for i, cand := range cands {
		wg.Add(1)
		go func(i int, cand model.Candidate) {
			defer wg.Done()
			raw, err := e.fetchSignal(ctx, provider.ToolCommuteProxy, center.Lat, center.Lon, map[string]interface{}{
				"lat":        center.Lat,
				"lon":        center.Lon,
				"campus_lat": cand.Lat,
				"campus_lon": cand.Lon,
			})
			if err != nil {
				errs[i] = err
				return
			}
			minutes[i] = provider.Decode[provider.CommuteEstimate](raw).EstMinutes
		}(i, cand)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}

	var sum float64
	for _, m := range minutes {
		sum += m
	}
	return sum / float64(len(minutes)), nil
}

// attachListingSamples pulls a bounded rent-points sample and pins nearby
// listing prices onto each marker area's evidence. Failures are skipped
// silently; this is enrichment, not a required signal.
func (e *Engine) attachListingSamples(ctx context.Context, box model.Bounds, result *model.AreaResult) {
	center := model.Center{Lat: (box.LatMin + box.LatMax) / 2, Lon: (box.LonMin + box.LonMax) / 2}
	raw, err := e.fetchSignal(ctx, provider.ToolRentPoints, center.Lat, center.Lon, map[string]interface{}{
		"bounds": map[string]interface{}{
			"lat_min": box.LatMin,
			"lat_max": box.LatMax,
			"lon_min": box.LonMin,
			"lon_max": box.LonMax,
		},
		"limit": RentPointsLimit,
	})
	if err != nil {
		return
	}

	points := provider.Decode[provider.RentPoints](raw)
	for _, marker := range result.Markers {
		area := result.Details[marker.ID]
		attached := 0
		for _, p := range points.Results {
			if haversineKM(area.Center.Lat, area.Center.Lon, p.Lat, p.Lon) > e.Pipeline.CellKM {
				continue
			}
			area.Evidence = append(area.Evidence, model.Evidence{
				Metric: "sample_listing_price",
				Value:  p.Price,
				Source: "rent-points",
			})
			attached++
			if attached == 3 {
				break
			}
		}
		result.Details[marker.ID] = area
	}
}

// affordabilityScore maps average cell rent against the student's price
// ceiling; with no ceiling or no price data the score is a neutral 60.
func affordabilityScore(avgPrice float64, pr *model.PriceRange) float64 {
	if pr == nil || pr.Max == nil || *pr.Max <= 0 || avgPrice <= 0 {
		return 60
	}
	score := 100 - (avgPrice / *pr.Max * 80)
	if score > 100 {
		score = 100
	}
	if score < 10 {
		score = 10
	}
	return score
}

// centroid averages the outer-ring vertices of a grid cell polygon.
// Vertices follow the GeoJSON [lon, lat] order.
func centroid(f provider.GridFeature) (model.Center, error) {
	if len(f.Geometry.Coordinates) == 0 || len(f.Geometry.Coordinates[0]) == 0 {
		return model.Center{}, fmt.Errorf("empty polygon geometry")
	}
	ring := f.Geometry.Coordinates[0]
	var sumLon, sumLat float64
	for _, vertex := range ring {
		if len(vertex) < 2 {
			return model.Center{}, fmt.Errorf("malformed polygon vertex")
		}
		sumLon += vertex[0]
		sumLat += vertex[1]
	}
	n := float64(len(ring))
	return model.Center{Lat: sumLat / n, Lon: sumLon / n}, nil
}

// topByCount keeps the n densest cells, ties broken by input order.
func topByCount(features []provider.GridFeature, n int) []provider.GridFeature {
	sorted := make([]provider.GridFeature, len(features))
	copy(sorted, features)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Properties.Count > sorted[j].Properties.Count
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// boundsOrDerive uses caller bounds when supplied, otherwise the bounding
// box of all candidate coordinates expanded by BBoxMargin.
func boundsOrDerive(bounds *model.Bounds, cands []model.Candidate) model.Bounds {
	if bounds != nil {
		return *bounds
	}

	box := model.Bounds{
		LatMin: cands[0].Lat, LatMax: cands[0].Lat,
		LonMin: cands[0].Lon, LonMax: cands[0].Lon,
	}
	for _, c := range cands[1:] {
		if c.Lat < box.LatMin {
			box.LatMin = c.Lat
		}
		if c.Lat > box.LatMax {
			box.LatMax = c.Lat
		}
		if c.Lon < box.LonMin {
			box.LonMin = c.Lon
		}
		if c.Lon > box.LonMax {
			box.LonMax = c.Lon
		}
	}
	box.LatMin -= BBoxMargin
	box.LatMax += BBoxMargin
	box.LonMin -= BBoxMargin
	box.LonMax += BBoxMargin
	return box
}
