package core

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayscout/stayscout/internal/core/model"
	"github.com/stayscout/stayscout/internal/provider"
)

var testPrefs = model.Preferences{
	Weights:       model.Weights{Safety: 0.4, Transit: 0.4, Amenities: 0.2},
	RadiusM:       800,
	WindowDays:    90,
	POICategories: []string{"grocery", "gym"},
}

func TestRankCandidatesEndToEndAllFifty(t *testing.T) {
	// All three sub-scores land at 50, weights 0.4/0.4/0.2: overall is 50.
	engine := newTestEngine(newStubCaller(), &roleMockLLM{signalScore: 50})

	result, err := engine.RankCandidates(context.Background(), []model.Candidate{
		{ID: "c1", Label: "Test apartment", Lat: 43.66, Lon: -79.39},
	}, testPrefs)
	require.NoError(t, err)

	require.Len(t, result.Ranking, 1)
	assert.Equal(t, "c1", result.Ranking[0].ID)
	assert.Equal(t, 1, result.Ranking[0].Rank)
	assert.Equal(t, 50.0, result.Ranking[0].Overall)

	detail := result.Details["c1"]
	assert.Equal(t, 50.0, detail.Subscores.Safety)
	assert.Equal(t, 50.0, detail.Subscores.Transit)
	assert.Equal(t, 50.0, detail.Subscores.Amenities)
	assert.Equal(t, 50.0, detail.Overall)
}

func TestRankCandidatesDeterministicPath(t *testing.T) {
	// No LLM configured: signal scores come from the fallback formulas.
	// crime: lower/1 incident -> 80-4=76; commute: 20min near -> 65;
	// pois: 2 amenities -> 16.
	engine := newTestEngine(newStubCaller(), nil)

	result, err := engine.RankCandidates(context.Background(), []model.Candidate{
		{ID: "c1", Label: "Test apartment", Lat: 43.66, Lon: -79.39},
	}, testPrefs)
	require.NoError(t, err)

	detail := result.Details["c1"]
	assert.Equal(t, 76.0, detail.Subscores.Safety)
	assert.Equal(t, 65.0, detail.Subscores.Transit)
	assert.Equal(t, 16.0, detail.Subscores.Amenities)
	// 76*0.4 + 65*0.4 + 16*0.2 = 59.6
	assert.Equal(t, 59.6, detail.Overall)
}

func TestRankCandidatesProviderFailureFailsRequest(t *testing.T) {
	stub := newStubCaller()
	stub.errs[provider.ToolCrimeSummary] = &provider.ToolError{Tool: provider.ToolCrimeSummary, Message: "boom"}
	engine := newTestEngine(stub, nil)

	_, err := engine.RankCandidates(context.Background(), []model.Candidate{
		{ID: "c1", Lat: 43.66, Lon: -79.39},
	}, testPrefs)

	require.Error(t, err)
	var toolErr *provider.ToolError
	assert.ErrorAs(t, err, &toolErr)
	assert.Contains(t, err.Error(), "c1")
}

func TestRankCandidatesUnknownRankingIDIsFatal(t *testing.T) {
	engine := newTestEngine(newStubCaller(), &ghostRankerLLM{})

	_, err := engine.RankCandidates(context.Background(), []model.Candidate{
		{ID: "c1", Lat: 43.66, Lon: -79.39},
	}, testPrefs)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown candidate")
}

// ghostRankerLLM corrupts the aggregator output with an id that matches no
// input candidate, while failing the signal roles into their fallbacks.
type ghostRankerLLM struct{}

func (g *ghostRankerLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "ranking candidate locations") {
		return `{"ranking": [{"id": "ghost", "overall_score_0_100": 99, "summary": "?"}]}`, nil
	}
	return "no structured output", nil
}

func TestRankCandidatesPopulatesCache(t *testing.T) {
	stub := newStubCaller()
	engine := newTestEngine(stub, nil)
	cands := []model.Candidate{{ID: "c1", Lat: 43.66, Lon: -79.39}}

	_, err := engine.RankCandidates(context.Background(), cands, testPrefs)
	require.NoError(t, err)
	_, err = engine.RankCandidates(context.Background(), cands, testPrefs)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.callCount(provider.ToolCrimeSummary), "second run must hit the cache")
	assert.Equal(t, 1, stub.callCount(provider.ToolCommuteProxy))
	assert.Equal(t, 1, stub.callCount(provider.ToolNearbyPOIs))
}

func TestRankCandidatesRejectsOverLimit(t *testing.T) {
	engine := newTestEngine(newStubCaller(), nil)

	cands := make([]model.Candidate, MaxCandidates+1)
	for i := range cands {
		cands[i] = model.Candidate{ID: fmt.Sprintf("c%d", i), Lat: 43.66, Lon: -79.39}
	}

	_, err := engine.RankCandidates(context.Background(), cands, testPrefs)
	assert.Error(t, err)

	_, err = engine.RankCandidates(context.Background(), nil, testPrefs)
	assert.Error(t, err)
}

func TestCombineTruncatesProsConsKeepsEvidence(t *testing.T) {
	cand := model.Candidate{ID: "c1", Label: "Test"}
	weights := model.Weights{Safety: 0.4, Transit: 0.4, Amenities: 0.2}

	safety := model.AgentOutput{
		Score: 80,
		Pros:  []string{"s1", "s2", "s3"},
		Cons:  []string{"sc1"},
		Evidence: []model.Evidence{
			{Metric: "incidents_total", Value: 1, Source: "test"},
		},
	}
	transit := model.AgentOutput{
		Score: 60,
		Pros:  []string{"t1", "t2", "t3"},
		Evidence: []model.Evidence{
			{Metric: "est_minutes", Value: 20, Source: "test"},
			{Metric: "distance_km", Value: 3.1, Source: "test"},
		},
	}
	amenities := model.AgentOutput{
		Score: 40,
		Pros:  []string{"a1", "a2"},
	}

	agg := combine(cand, weights, safety, transit, amenities)

	// First six in safety, transit, amenities order; a1/a2 fall off.
	assert.Equal(t, []string{"s1", "s2", "s3", "t1", "t2", "t3"}, agg.Pros)
	assert.Equal(t, []string{"sc1"}, agg.Cons)
	assert.Len(t, agg.Evidence, 3, "evidence is concatenated without truncation")
	// 80*0.4 + 60*0.4 + 40*0.2 = 64
	assert.Equal(t, 64.0, agg.Overall)
}

func TestCombineRoundsToTwoDecimals(t *testing.T) {
	agg := combine(model.Candidate{ID: "c1"}, model.Weights{Safety: 1.0 / 3, Transit: 1.0 / 3, Amenities: 1.0 / 3},
		model.AgentOutput{Score: 70}, model.AgentOutput{Score: 60}, model.AgentOutput{Score: 70})
	assert.Equal(t, 66.67, agg.Overall)
}
