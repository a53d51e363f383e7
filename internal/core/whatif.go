package core

import (
	"context"
	"sync"

	"github.com/stayscout/stayscout/internal/core/agent"
	"github.com/stayscout/stayscout/internal/core/model"
)

// What-if adjustment tuning: a commute-tolerance change of transitShiftSpan
// minutes moves the transit weight by the full transitShiftFactor, and the
// adjusted weight is clamped before renormalizing.
const (
	transitShiftFactor = 0.2
	transitShiftSpan   = 30.0
	transitWeightMin   = 0.05
	transitWeightMax   = 0.9
)

// WhatIfResult pairs the two independent pipeline runs with the narrative
// comparison and the preferences the scenario actually used.
type WhatIfResult struct {
	Baseline  *model.RankResult `json:"baseline"`
	Scenario  *model.RankResult `json:"scenario"`
	Narrative string            `json:"narrative"`
	Adjusted  model.Preferences `json:"adjusted_preferences"`
}

// WhatIf runs the candidate pipeline twice, once with the caller's
// preferences and once with preferences perturbed by the budget and
// commute-tolerance deltas, then narrates the difference. The two runs are
// independent; differing parameters produce differing cache keys, so neither
// run pollutes the other.
func (e *Engine) WhatIf(ctx context.Context, cands []model.Candidate, prefs model.Preferences, budgetDelta, commuteDeltaMin float64) (*WhatIfResult, error) {
	adjusted := AdjustPreferences(prefs, budgetDelta, commuteDeltaMin)

	var (
		baseline, scenario *model.RankResult
		baseErr, scenErr   error
		wg                 sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		baseline, baseErr = e.RankCandidates(ctx, cands, prefs)
	}()
	go func() {
		defer wg.Done()
		scenario, scenErr = e.RankCandidates(ctx, cands, adjusted)
	}()
	wg.Wait()

	if baseErr != nil {
		return nil, baseErr
	}
	if scenErr != nil {
		return nil, scenErr
	}

	narrative := e.Runner.SummarizeWhatIf(ctx, *baseline, *scenario)

	return &WhatIfResult{
		Baseline:  baseline,
		Scenario:  scenario,
		Narrative: narrative,
		Adjusted:  adjusted,
	}, nil
}

// AdjustPreferences returns a copy of prefs with both non-nil price bounds
// shifted by the budget delta and the transit weight nudged by the commute
// tolerance: a tighter tolerance (negative delta) raises the weight, a looser
// one lowers it, clamped to [transitWeightMin, transitWeightMax] and then
// renormalized so the three weights sum to 1.
func AdjustPreferences(prefs model.Preferences, budgetDelta, commuteDeltaMin float64) model.Preferences {
	adjusted := prefs

	if prefs.PriceRange != nil {
		pr := model.PriceRange{}
		if prefs.PriceRange.Min != nil {
			min := *prefs.PriceRange.Min + budgetDelta
			pr.Min = &min
		}
		if prefs.PriceRange.Max != nil {
			max := *prefs.PriceRange.Max + budgetDelta
			pr.Max = &max
		}
		adjusted.PriceRange = &pr
	}

	shift := clamp(-commuteDeltaMin/transitShiftSpan, -1, 1) * transitShiftFactor
	weights := adjusted.Weights
	weights.Transit = clamp(weights.Transit+shift, transitWeightMin, transitWeightMax)
	adjusted.Weights = agent.NormalizeWeights(weights)

	return adjusted
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
