package agent

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/stayscout/stayscout/internal/core/model"
	"github.com/stayscout/stayscout/internal/provider"
)

// Deterministic scoring used whenever the generative path is unavailable or
// never produced valid output. The arithmetic here is the parity contract
// for the non-LLM rendition of every role and must stay stable.

// Fixed narrative placeholders for the summary roles.
const (
	FallbackAreaSummaryText   = "Area ranking generated without narrative analysis; scores reflect affordability, safety, transit and amenities signals."
	FallbackWhatIfSummaryText = "Scenario comparison generated without narrative analysis; compare the baseline and scenario rankings directly."
)

// FallbackSafety scores a crime summary. Base score comes from the rate
// hint, then total incident volume subtracts up to 40 points, floored at 10.
func FallbackSafety(candidateID string, crime provider.CrimeSummary) model.AgentOutput {
	total := 0
	for _, n := range crime.CountsByType {
		total += n
	}

	base := 45.0
	switch {
	case strings.Contains(crime.RateHint, "lower"):
		base = 80
	case strings.Contains(crime.RateHint, "moderate"):
		base = 60
	}

	score := math.Max(10, base-math.Min(float64(total)*4, 40))

	out := model.AgentOutput{
		CandidateID: candidateID,
		Score:       score,
		Summary:     fmt.Sprintf("%d incidents in window, %s rate", total, orUnknown(crime.RateHint)),
		Evidence: []model.Evidence{
			{Metric: "incidents_total", Value: total, Source: crime.Source},
			{Metric: "rate_hint", Value: crime.RateHint, Source: crime.Source},
		},
	}
	if strings.Contains(crime.RateHint, "lower") {
		out.Pros = append(out.Pros, "lower reported crime rate than surrounding areas")
	}
	if total > 10 {
		out.Cons = append(out.Cons, fmt.Sprintf("%d incidents reported in the window", total))
	}
	if crime.TrendHint == "upward" {
		out.Cons = append(out.Cons, "incident trend is upward")
	}
	return out
}

// FallbackTransit scores a commute estimate: minutes eat into the score two
// points each up to 80, with a small bonus for being near a stop.
func FallbackTransit(candidateID string, commute provider.CommuteEstimate) model.AgentOutput {
	score := 100 - math.Min(commute.EstMinutes*2, 80)
	if strings.Contains(commute.NearTransitHint, "near") {
		score += 5
	}

	out := model.AgentOutput{
		CandidateID: candidateID,
		Score:       score,
		Summary:     fmt.Sprintf("about %.0f minutes to campus, %s", commute.EstMinutes, orUnknown(commute.NearTransitHint)),
		Evidence: []model.Evidence{
			{Metric: "est_minutes", Value: commute.EstMinutes, Source: commute.Source},
			{Metric: "distance_km", Value: commute.DistanceKM, Source: commute.Source},
		},
	}
	if strings.Contains(commute.NearTransitHint, "near") {
		out.Pros = append(out.Pros, "transit stop within walking distance")
	}
	if commute.EstMinutes > 30 {
		out.Cons = append(out.Cons, fmt.Sprintf("commute estimated at %.0f minutes", commute.EstMinutes))
	}
	return out
}

// FallbackAmenities scores POI density: eight points per nearby amenity
// capped at 100, with a fixed floor of 20 when nothing is nearby (a bare
// area is still worth something, not zero).
func FallbackAmenities(candidateID string, pois provider.POISummary) model.AgentOutput {
	total := 0
	for _, n := range pois.CountsByCategory {
		total += n
	}

	score := math.Min(float64(total)*8, 100)
	if total == 0 {
		score = 20
	}

	out := model.AgentOutput{
		CandidateID: candidateID,
		Score:       score,
		Summary:     fmt.Sprintf("%d amenities within radius", total),
		Evidence: []model.Evidence{
			{Metric: "amenities_total", Value: total, Source: pois.Source},
		},
	}
	for category, n := range pois.CountsByCategory {
		out.Evidence = append(out.Evidence, model.Evidence{Metric: "count_" + category, Value: n, Source: pois.Source})
	}
	if total >= 8 {
		out.Pros = append(out.Pros, "dense amenity coverage nearby")
	}
	if total == 0 {
		out.Cons = append(out.Cons, "no matching amenities found within radius")
	}
	return out
}

// FallbackRanking orders aggregated candidates by overall score descending.
// The sort is stable so equal scores keep input order.
func FallbackRanking(cands []model.AggregatedCandidate) model.AgentRanking {
	sorted := make([]model.AggregatedCandidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Overall > sorted[j].Overall
	})

	ranking := make([]model.AgentRankingEntry, 0, len(sorted))
	for _, c := range sorted {
		ranking = append(ranking, model.AgentRankingEntry{
			ID:      c.CandidateID,
			Overall: c.Overall,
			Summary: fmt.Sprintf("%s: safety %.0f, transit %.0f, amenities %.0f", c.Label, c.Subscores.Safety, c.Subscores.Transit, c.Subscores.Amenities),
		})
	}
	return model.AgentRanking{Ranking: ranking}
}

// FallbackAreaRanking scores each area as the mean of its four sub-scores
// and sorts descending, ties broken by input order.
func FallbackAreaRanking(areas []model.AreaScored) model.AgentRanking {
	type scored struct {
		area model.AreaScored
		mean float64
	}
	items := make([]scored, 0, len(areas))
	for _, a := range areas {
		mean := (a.Subscores.Affordability + a.Subscores.Safety + a.Subscores.Transit + a.Subscores.Amenities) / 4
		items = append(items, scored{area: a, mean: mean})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].mean > items[j].mean
	})

	ranking := make([]model.AgentRankingEntry, 0, len(items))
	for _, it := range items {
		ranking = append(ranking, model.AgentRankingEntry{
			ID:      it.area.AreaID,
			Overall: round2(it.mean),
			Summary: fmt.Sprintf("%s: avg rent $%.0f across %d listings", it.area.Label, it.area.AvgPrice, it.area.Count),
		})
	}
	return model.AgentRanking{Ranking: ranking}
}

// NormalizeWeights returns a copy of w scaled to sum to 1. NaN, infinite and
// negative weights clamp to 0 first; an all-zero triple is divided by 1
// instead of 0 and stays all-zero. Caller input is never mutated.
func NormalizeWeights(w model.Weights) model.Weights {
	safety := clampWeight(w.Safety)
	transit := clampWeight(w.Transit)
	amenities := clampWeight(w.Amenities)

	sum := safety + transit + amenities
	if sum == 0 {
		sum = 1
	}
	return model.Weights{
		Safety:    safety / sum,
		Transit:   transit / sum,
		Amenities: amenities / sum,
	}
}

func clampWeight(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
