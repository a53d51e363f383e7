package agent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stayscout/stayscout/internal/core/model"
	"github.com/stayscout/stayscout/internal/provider"
)

func TestNormalizeWeightsSumsToOne(t *testing.T) {
	cases := []model.Weights{
		{Safety: 0.4, Transit: 0.4, Amenities: 0.2},
		{Safety: 3, Transit: 1, Amenities: 1},
		{Safety: 0.01, Transit: 0, Amenities: 0},
	}
	for _, w := range cases {
		n := NormalizeWeights(w)
		sum := n.Safety + n.Transit + n.Amenities
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.GreaterOrEqual(t, n.Safety, 0.0)
		assert.GreaterOrEqual(t, n.Transit, 0.0)
		assert.GreaterOrEqual(t, n.Amenities, 0.0)
	}
}

func TestNormalizeWeightsDegenerateInputs(t *testing.T) {
	n := NormalizeWeights(model.Weights{Safety: math.NaN(), Transit: -2, Amenities: math.Inf(1)})
	assert.Equal(t, model.Weights{}, n, "all-invalid weights normalize to all-zero, not a divide by zero")

	n = NormalizeWeights(model.Weights{})
	assert.Equal(t, model.Weights{}, n)

	n = NormalizeWeights(model.Weights{Safety: math.NaN(), Transit: 0.5, Amenities: 0.5})
	assert.Equal(t, 0.0, n.Safety)
	assert.InDelta(t, 0.5, n.Transit, 1e-9)
}

func TestNormalizeWeightsDoesNotMutateInput(t *testing.T) {
	in := model.Weights{Safety: 2, Transit: 1, Amenities: 1}
	_ = NormalizeWeights(in)
	assert.Equal(t, model.Weights{Safety: 2, Transit: 1, Amenities: 1}, in)
}

func TestFallbackSafetyFromCrimeCounts(t *testing.T) {
	out := FallbackSafety("c1", provider.CrimeSummary{
		CountsByType: map[string]int{"assault": 2, "theft": 1},
		RateHint:     "lower crime",
	})
	// base 80, penalty min(3*4, 40) = 12
	assert.Equal(t, 68.0, out.Score)
	assert.Equal(t, "c1", out.CandidateID)
}

func TestFallbackSafetyBounds(t *testing.T) {
	heavy := FallbackSafety("c1", provider.CrimeSummary{
		CountsByType: map[string]int{"theft": 500},
		RateHint:     "higher",
	})
	assert.Equal(t, 10.0, heavy.Score, "floor at 10 even under heavy volume")

	quiet := FallbackSafety("c1", provider.CrimeSummary{RateHint: "lower"})
	assert.Equal(t, 80.0, quiet.Score)

	unknown := FallbackSafety("c1", provider.CrimeSummary{RateHint: "unknown"})
	assert.Equal(t, 45.0, unknown.Score)

	for _, out := range []model.AgentOutput{heavy, quiet, unknown} {
		assert.GreaterOrEqual(t, out.Score, 10.0)
		assert.LessOrEqual(t, out.Score, 100.0)
	}
}

func TestFallbackTransitFromCommute(t *testing.T) {
	out := FallbackTransit("c1", provider.CommuteEstimate{
		EstMinutes:      20,
		NearTransitHint: "near bus stop",
	})
	// 100 - min(40, 80) + 5
	assert.Equal(t, 65.0, out.Score)
}

func TestFallbackTransitLongCommuteCapped(t *testing.T) {
	out := FallbackTransit("c1", provider.CommuteEstimate{EstMinutes: 90})
	assert.Equal(t, 20.0, out.Score, "minutes penalty caps at 80")
}

func TestFallbackAmenitiesEmptyIsTwenty(t *testing.T) {
	out := FallbackAmenities("c1", provider.POISummary{CountsByCategory: map[string]int{}})
	assert.Equal(t, 20.0, out.Score, "no amenities scores exactly 20, not 0")
}

func TestFallbackAmenitiesDensityCapped(t *testing.T) {
	out := FallbackAmenities("c1", provider.POISummary{
		CountsByCategory: map[string]int{"grocery": 5, "gym": 3, "cafe": 20},
	})
	assert.Equal(t, 100.0, out.Score)

	out = FallbackAmenities("c1", provider.POISummary{CountsByCategory: map[string]int{"grocery": 4}})
	assert.Equal(t, 32.0, out.Score)
}

func TestFallbackRankingSortsDescending(t *testing.T) {
	ranking := FallbackRanking([]model.AggregatedCandidate{
		{CandidateID: "c1", Overall: 40},
		{CandidateID: "c2", Overall: 90},
		{CandidateID: "c3", Overall: 70},
	})

	ids := make([]string, 0, len(ranking.Ranking))
	for _, e := range ranking.Ranking {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"c2", "c3", "c1"}, ids)
}

func TestFallbackRankingStableOnTies(t *testing.T) {
	ranking := FallbackRanking([]model.AggregatedCandidate{
		{CandidateID: "first", Overall: 50},
		{CandidateID: "second", Overall: 50},
	})
	assert.Equal(t, "first", ranking.Ranking[0].ID)
	assert.Equal(t, "second", ranking.Ranking[1].ID)
}

func TestFallbackAreaRankingUsesMeanOfSubscores(t *testing.T) {
	ranking := FallbackAreaRanking([]model.AreaScored{
		{AreaCandidate: model.AreaCandidate{AreaID: "0-1"}, Subscores: model.AreaSubscores{Affordability: 40, Safety: 40, Transit: 40, Amenities: 40}},
		{AreaCandidate: model.AreaCandidate{AreaID: "2-3"}, Subscores: model.AreaSubscores{Affordability: 80, Safety: 60, Transit: 70, Amenities: 90}},
	})

	assert.Equal(t, "2-3", ranking.Ranking[0].ID)
	assert.Equal(t, 75.0, ranking.Ranking[0].Overall)
	assert.Equal(t, 40.0, ranking.Ranking[1].Overall)
}
