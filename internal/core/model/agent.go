package model

// Evidence is one supporting data point behind a sub-score.
type Evidence struct {
	Metric string      `json:"metric"`
	Value  interface{} `json:"value"`
	Source string      `json:"source"`
}

// AgentOutput is the structured result of one (candidate, signal) analysis,
// produced either by the LLM path or its deterministic fallback.
type AgentOutput struct {
	CandidateID string     `json:"candidate_id" validate:"required"`
	Score       float64    `json:"score_0_100" validate:"min=0,max=100"`
	Summary     string     `json:"summary"`
	Pros        []string   `json:"pros"`
	Cons        []string   `json:"cons"`
	Evidence    []Evidence `json:"evidence"`
}

type Subscores struct {
	Safety    float64 `json:"safety"`
	Transit   float64 `json:"transit"`
	Amenities float64 `json:"amenities"`
}

// AggregatedCandidate carries the weighted combination of the three
// per-signal analyses for one candidate.
type AggregatedCandidate struct {
	CandidateID string     `json:"candidate_id"`
	Label       string     `json:"label"`
	Overall     float64    `json:"overall_score_0_100"`
	Subscores   Subscores  `json:"subscores"`
	Pros        []string   `json:"pros"`
	Cons        []string   `json:"cons"`
	Evidence    []Evidence `json:"evidence"`
}

// RankingEntry is one line of the ordered ranking. The sort order is the
// contract downstream consumers depend on; Rank is the 1-based position.
type RankingEntry struct {
	ID           string   `json:"id"`
	Rank         int      `json:"rank"`
	Overall      float64  `json:"overall_score_0_100"`
	Summary      string   `json:"summary"`
	KeyTradeoffs []string `json:"key_tradeoffs"`
}

// AgentRanking is the aggregator/area_ranking role output shape.
type AgentRanking struct {
	Ranking []AgentRankingEntry `json:"ranking" validate:"required,min=1,dive"`
	Summary string              `json:"summary"`
}

type AgentRankingEntry struct {
	ID           string   `json:"id" validate:"required"`
	Overall      float64  `json:"overall_score_0_100" validate:"min=0,max=100"`
	Summary      string   `json:"summary"`
	KeyTradeoffs []string `json:"key_tradeoffs"`
}

// AgentSummary is the output shape of the narrative roles.
type AgentSummary struct {
	Summary string `json:"summary" validate:"required"`
}

// RankResult pairs the ordered ranking with the per-candidate breakdowns.
type RankResult struct {
	Ranking []RankingEntry                 `json:"ranking"`
	Details map[string]AggregatedCandidate `json:"details"`
}
