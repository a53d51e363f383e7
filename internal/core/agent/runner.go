package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/stayscout/stayscout/internal/config"
	"github.com/stayscout/stayscout/internal/core/common"
	"github.com/stayscout/stayscout/internal/core/model"
	"github.com/stayscout/stayscout/internal/llm"
	"github.com/stayscout/stayscout/internal/provider"
)

type Role string

const (
	RoleSafety        Role = "safety"
	RoleTransit       Role = "transit"
	RoleAmenities     Role = "amenities"
	RoleAggregator    Role = "aggregator"
	RoleAreaRanking   Role = "area_ranking"
	RoleAreaSummary   Role = "area_summary"
	RoleWhatIfSummary Role = "what_if_summary"
)

// MaxAttempts caps the generate-extract-validate loop per invocation before
// the deterministic fallback takes over.
const MaxAttempts = 3

// Runner invokes the LLM with a role-specific instruction and a JSON
// payload, validates the structured response, and degrades to the role's
// deterministic fallback when the LLM is unavailable or never returns valid
// output. Soft failures are absorbed here and never surface to callers.
type Runner struct {
	LLM      llm.Client
	Prompts  config.RolePrompts
	validate *validator.Validate
}

func NewRunner(client llm.Client, prompts config.RolePrompts) *Runner {
	return &Runner{
		LLM:      client,
		Prompts:  prompts,
		validate: validator.New(),
	}
}

// run is the generic retry-then-fallback combinator shared by every role.
// A nil LLM client goes straight to the fallback; that is a designed
// degradation path, not an error state.
func run[T any](ctx context.Context, r *Runner, role Role, prompt string, check func(T) error, fallback func() T) T {
	if r.LLM == nil {
		return fallback()
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		raw, err := r.LLM.Generate(ctx, prompt)
		if err != nil {
			log.Printf("agent %s: attempt %d generate failed: %v", role, attempt, err)
			continue
		}
		out, err := common.ExtractJSON[T](raw)
		if err != nil {
			log.Printf("agent %s: attempt %d: %v", role, attempt, err)
			continue
		}
		if err := r.validate.Struct(out); err != nil {
			log.Printf("agent %s: attempt %d schema mismatch: %v", role, attempt, err)
			continue
		}
		if check != nil {
			if err := check(out); err != nil {
				log.Printf("agent %s: attempt %d rejected: %v", role, attempt, err)
				continue
			}
		}
		return out
	}

	log.Printf("agent %s: exhausted %d attempts, using deterministic fallback", role, MaxAttempts)
	return fallback()
}

// ScoreSafety rates one candidate's crime signal.
func (r *Runner) ScoreSafety(ctx context.Context, cand model.Candidate, crime provider.CrimeSummary) model.AgentOutput {
	prompt := buildPrompt(orDefault(r.Prompts.Safety, defaultSafetyPrompt), cand, crime)
	return run(ctx, r, RoleSafety, prompt,
		matchesCandidate(cand.ID),
		func() model.AgentOutput { return FallbackSafety(cand.ID, crime) })
}

// ScoreTransit rates one candidate's commute signal.
func (r *Runner) ScoreTransit(ctx context.Context, cand model.Candidate, commute provider.CommuteEstimate) model.AgentOutput {
	prompt := buildPrompt(orDefault(r.Prompts.Transit, defaultTransitPrompt), cand, commute)
	return run(ctx, r, RoleTransit, prompt,
		matchesCandidate(cand.ID),
		func() model.AgentOutput { return FallbackTransit(cand.ID, commute) })
}

// ScoreAmenities rates one candidate's nearby-POI signal.
func (r *Runner) ScoreAmenities(ctx context.Context, cand model.Candidate, pois provider.POISummary) model.AgentOutput {
	prompt := buildPrompt(orDefault(r.Prompts.Amenities, defaultAmenitiesPrompt), cand, pois)
	return run(ctx, r, RoleAmenities, prompt,
		matchesCandidate(cand.ID),
		func() model.AgentOutput { return FallbackAmenities(cand.ID, pois) })
}

// RankCandidates produces the authoritative ordering over the aggregated
// candidates.
func (r *Runner) RankCandidates(ctx context.Context, cands []model.AggregatedCandidate) model.AgentRanking {
	payload, _ := json.Marshal(cands)
	prompt := fmt.Sprintf(orDefault(r.Prompts.Aggregator, defaultAggregatorPrompt), string(payload))
	return run(ctx, r, RoleAggregator, prompt, nil,
		func() model.AgentRanking { return FallbackRanking(cands) })
}

// RankAreas orders the scored grid areas.
func (r *Runner) RankAreas(ctx context.Context, areas []model.AreaScored) model.AgentRanking {
	payload, _ := json.Marshal(areas)
	prompt := fmt.Sprintf(orDefault(r.Prompts.AreaRanking, defaultAreaRankingPrompt), string(payload))
	return run(ctx, r, RoleAreaRanking, prompt, nil,
		func() model.AgentRanking { return FallbackAreaRanking(areas) })
}

// SummarizeAreas narrates the ranked areas.
func (r *Runner) SummarizeAreas(ctx context.Context, ranking model.AgentRanking) string {
	payload, _ := json.Marshal(ranking)
	prompt := fmt.Sprintf(orDefault(r.Prompts.AreaSummary, defaultAreaSummaryPrompt), string(payload))
	out := run(ctx, r, RoleAreaSummary, prompt, nil,
		func() model.AgentSummary { return model.AgentSummary{Summary: FallbackAreaSummaryText} })
	return out.Summary
}

// SummarizeWhatIf narrates the delta between a baseline and a scenario run.
func (r *Runner) SummarizeWhatIf(ctx context.Context, baseline, scenario model.RankResult) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"baseline": baseline.Ranking,
		"scenario": scenario.Ranking,
	})
	prompt := fmt.Sprintf(orDefault(r.Prompts.WhatIfSummary, defaultWhatIfSummaryPrompt), string(payload))
	out := run(ctx, r, RoleWhatIfSummary, prompt, nil,
		func() model.AgentSummary { return model.AgentSummary{Summary: FallbackWhatIfSummaryText} })
	return out.Summary
}

func matchesCandidate(id string) func(model.AgentOutput) error {
	return func(out model.AgentOutput) error {
		if out.CandidateID != id {
			return fmt.Errorf("candidate_id %q does not match %q", out.CandidateID, id)
		}
		return nil
	}
}

func buildPrompt(template string, cand model.Candidate, payload interface{}) string {
	candJSON, _ := json.Marshal(cand)
	payloadJSON, _ := json.Marshal(payload)
	return fmt.Sprintf(template, string(candJSON), string(payloadJSON))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
