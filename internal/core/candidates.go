package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/stayscout/stayscout/internal/core/agent"
	"github.com/stayscout/stayscout/internal/core/model"
	"github.com/stayscout/stayscout/internal/provider"
)

// RankCandidates runs the per-candidate aggregation pipeline: fetch the
// three signals per candidate, score each through its agent role, combine
// under the normalized weights, then let the aggregator role produce the
// authoritative ordering. Any signal fetch failure fails the whole request;
// agent failures never surface (the runner absorbs them).
func (e *Engine) RankCandidates(ctx context.Context, cands []model.Candidate, prefs model.Preferences) (*model.RankResult, error) {
	if len(cands) == 0 {
		return nil, fmt.Errorf("no candidates")
	}
	if len(cands) > MaxCandidates {
		return nil, fmt.Errorf("too many candidates: %d (max %d)", len(cands), MaxCandidates)
	}

	weights := agent.NormalizeWeights(prefs.Weights)

	aggregated := make([]model.AggregatedCandidate, 0, len(cands))
	for _, cand := range cands {
		agg, err := e.aggregateCandidate(ctx, cand, prefs, weights)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", cand.ID, err)
		}
		aggregated = append(aggregated, agg)
	}

	ranking := e.Runner.RankCandidates(ctx, aggregated)

	details := make(map[string]model.AggregatedCandidate, len(aggregated))
	for _, a := range aggregated {
		details[a.CandidateID] = a
	}

	result := &model.RankResult{Details: details}
	for i, entry := range ranking.Ranking {
		// A ranking id without a matching input candidate means the role
		// output is corrupt in a way schema validation cannot catch.
		if _, ok := details[entry.ID]; !ok {
			return nil, fmt.Errorf("ranking references unknown candidate %q", entry.ID)
		}
		result.Ranking = append(result.Ranking, model.RankingEntry{
			ID:           entry.ID,
			Rank:         i + 1,
			Overall:      entry.Overall,
			Summary:      entry.Summary,
			KeyTradeoffs: entry.KeyTradeoffs,
		})
	}

	return result, nil
}

// aggregateCandidate fetches the three signal payloads concurrently, runs
// the three scoring roles concurrently, and combines the sub-scores.
func (e *Engine) aggregateCandidate(ctx context.Context, cand model.Candidate, prefs model.Preferences, weights model.Weights) (model.AggregatedCandidate, error) {
	var (
		crime   provider.CrimeSummary
		commute provider.CommuteEstimate
		pois    provider.POISummary
		errs    [3]error
		wg      sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		raw, err := e.fetchSignal(ctx, provider.ToolCrimeSummary, cand.Lat, cand.Lon, map[string]interface{}{
			"lat":         cand.Lat,
			"lon":         cand.Lon,
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
		raw, err := e.fetchSignal(ctx, provider.ToolCommuteProxy, cand.Lat, cand.Lon, map[string]interface{}{
			"lat":        cand.Lat,
			"lon":        cand.Lon,
			"campus_lat": e.Pipeline.CampusLat,
			"campus_lon": e.Pipeline.CampusLon,
		})
		if err != nil {
			errs[1] = err
			return
		}
		commute = provider.Decode[provider.CommuteEstimate](raw)
	}()
	go func() {
		defer wg.Done()
		raw, err := e.fetchSignal(ctx, provider.ToolNearbyPOIs, cand.Lat, cand.Lon, map[string]interface{}{
			"lat":        cand.Lat,
			"lon":        cand.Lon,
			"categories": prefs.POICategories,
			"radius_m":   prefs.RadiusM,
		})
		if err != nil {
			errs[2] = err
			return
		}
		pois = provider.Decode[provider.POISummary](raw)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return model.AggregatedCandidate{}, err
		}
	}

	var safety, transit, amenities model.AgentOutput
	wg.Add(3)
	go func() {
		defer wg.Done()
		safety = e.Runner.ScoreSafety(ctx, cand, crime)
	}()
	go func() {
		defer wg.Done()
		transit = e.Runner.ScoreTransit(ctx, cand, commute)
	}()
	go func() {
		defer wg.Done()
		amenities = e.Runner.ScoreAmenities(ctx, cand, pois)
	}()
	wg.Wait()

	return combine(cand, weights, safety, transit, amenities), nil
}

// combine folds the three sub-scores into one weighted overall score and
// merges the narrative lists. Pros/cons keep the first MaxProsCons entries
// in safety, transit, amenities order; evidence is never truncated.
func combine(cand model.Candidate, weights model.Weights, safety, transit, amenities model.AgentOutput) model.AggregatedCandidate {
	overall := round2(safety.Score*weights.Safety + transit.Score*weights.Transit + amenities.Score*weights.Amenities)

	pros := truncate(concat(safety.Pros, transit.Pros, amenities.Pros), MaxProsCons)
	cons := truncate(concat(safety.Cons, transit.Cons, amenities.Cons), MaxProsCons)

	evidence := make([]model.Evidence, 0, len(safety.Evidence)+len(transit.Evidence)+len(amenities.Evidence))
	evidence = append(evidence, safety.Evidence...)
	evidence = append(evidence, transit.Evidence...)
	evidence = append(evidence, amenities.Evidence...)

	return model.AggregatedCandidate{
		CandidateID: cand.ID,
		Label:       cand.Label,
		Overall:     overall,
		Subscores: model.Subscores{
			Safety:    safety.Score,
			Transit:   transit.Score,
			Amenities: amenities.Score,
		},
		Pros:     pros,
		Cons:     cons,
		Evidence: evidence,
	}
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func truncate(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}
