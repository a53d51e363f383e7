package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/stayscout/stayscout/internal/cache"
	"github.com/stayscout/stayscout/internal/config"
	"github.com/stayscout/stayscout/internal/core/agent"
	"github.com/stayscout/stayscout/internal/llm"
	"github.com/stayscout/stayscout/internal/provider"
)

// stubCaller serves canned payloads per tool and counts calls, so tests can
// assert on cache behavior and failure propagation.
type stubCaller struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	errs      map[string]error
	calls     map[string]int
}

func newStubCaller() *stubCaller {
	return &stubCaller{
		responses: map[string]json.RawMessage{
			provider.ToolCrimeSummary: json.RawMessage(`{"counts_by_type": {"theft": 1}, "rate_hint": "lower", "trend_hint": "stable", "source": "test"}`),
			provider.ToolCommuteProxy: json.RawMessage(`{"distance_km": 3.1, "est_minutes": 20, "near_transit_hint": "near subway", "source": "test"}`),
			provider.ToolNearbyPOIs:   json.RawMessage(`{"results": [], "counts_by_category": {"grocery": 2}, "source": "test"}`),
			provider.ToolRentPoints:   json.RawMessage(`{"results": []}`),
		},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (s *stubCaller) Call(ctx context.Context, tool string, args map[string]interface{}) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[tool]++
	if err := s.errs[tool]; err != nil {
		return nil, err
	}
	if data, ok := s.responses[tool]; ok {
		return data, nil
	}
	return nil, &provider.ToolError{Tool: tool, Message: "Unknown tool"}
}

func (s *stubCaller) callCount(tool string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[tool]
}

// roleMockLLM answers signal-role prompts with a fixed-score object for
// whichever candidate the prompt embeds, and leaves the other roles to their
// fallbacks by answering with prose.
type roleMockLLM struct {
	signalScore float64
}

func (m *roleMockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	isSignalRole := strings.Contains(prompt, "safety analyst") ||
		strings.Contains(prompt, "commute analyst") ||
		strings.Contains(prompt, "amenities analyst")
	if !isSignalRole {
		return "no structured output available", nil
	}

	var resp struct {
		CandidateID string  `json:"candidate_id"`
		Score       float64 `json:"score_0_100"`
		Summary     string  `json:"summary"`
	}
	resp.CandidateID = candidateIDFromPrompt(prompt)
	resp.Score = m.signalScore
	resp.Summary = "mocked"
	b, _ := json.Marshal(resp)
	return string(b), nil
}

func candidateIDFromPrompt(prompt string) string {
	const marker = `"id":"`
	i := strings.Index(prompt, marker)
	if i == -1 {
		return ""
	}
	rest := prompt[i+len(marker):]
	j := strings.IndexByte(rest, '"')
	if j == -1 {
		return ""
	}
	return rest[:j]
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		CampusLat: 43.6629,
		CampusLon: -79.3957,
		CellKM:    1.0,
		MinCount:  3,
	}
}

func newTestEngine(caller provider.Caller, client llm.Client) *Engine {
	runner := agent.NewRunner(client, config.RolePrompts{})
	return NewEngine(cache.NewMemoryCache(), caller, runner, testPipelineConfig())
}
