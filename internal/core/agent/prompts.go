package agent

// Compiled-in prompt templates, overridable per role via config.toml.
// Signal-role templates take two %s slots (candidate JSON, payload JSON);
// the ranking and summary templates take one.

const defaultSafetyPrompt = `You are a student-housing safety analyst. Rate the location below from 0 (unsafe) to 100 (very safe) using only the crime summary signal provided.

Respond with ONLY a JSON object in this exact shape:
{
  "candidate_id": "<id of the candidate>",
  "score_0_100": 0,
  "summary": "one sentence",
  "pros": ["..."],
  "cons": ["..."],
  "evidence": [{"metric": "...", "value": 0, "source": "..."}]
}

Candidate:
%s

Crime summary signal:
%s`

const defaultTransitPrompt = `You are a commute analyst for students. Rate the location below from 0 (poor commute) to 100 (excellent commute) using only the commute signal provided.

Respond with ONLY a JSON object in this exact shape:
{
  "candidate_id": "<id of the candidate>",
  "score_0_100": 0,
  "summary": "one sentence",
  "pros": ["..."],
  "cons": ["..."],
  "evidence": [{"metric": "...", "value": 0, "source": "..."}]
}

Candidate:
%s

Commute signal:
%s`

const defaultAmenitiesPrompt = `You are an amenities analyst for students. Rate the location below from 0 (no amenities) to 100 (rich amenities) using only the nearby points-of-interest signal provided.

Respond with ONLY a JSON object in this exact shape:
{
  "candidate_id": "<id of the candidate>",
  "score_0_100": 0,
  "summary": "one sentence",
  "pros": ["..."],
  "cons": ["..."],
  "evidence": [{"metric": "...", "value": 0, "source": "..."}]
}

Candidate:
%s

Nearby POI signal:
%s`

const defaultAggregatorPrompt = `You are ranking candidate locations for a student. Each candidate below already has a weighted overall score and per-signal sub-scores. Produce a ranking from best to worst. Keep every candidate and do not invent new ids.

Respond with ONLY a JSON object in this exact shape:
{
  "ranking": [
    {"id": "<candidate_id>", "overall_score_0_100": 0, "summary": "one sentence", "key_tradeoffs": ["..."]}
  ],
  "summary": "one short paragraph comparing the options"
}

Candidates:
%s`

const defaultAreaRankingPrompt = `You are ranking neighbourhood grid areas for a student, using four sub-scores per area: affordability, safety, transit, amenities. Produce a ranking from best to worst. Keep every area and do not invent new ids.

Respond with ONLY a JSON object in this exact shape:
{
  "ranking": [
    {"id": "<area_id>", "overall_score_0_100": 0, "summary": "one sentence", "key_tradeoffs": ["..."]}
  ],
  "summary": "one short paragraph"
}

Areas:
%s`

const defaultAreaSummaryPrompt = `Summarize the ranked neighbourhood areas below for a student in two or three sentences, highlighting the strongest areas and the main tradeoffs.

Respond with ONLY a JSON object: {"summary": "..."}

Ranked areas:
%s`

const defaultWhatIfSummaryPrompt = `Compare the two rankings below: "baseline" used the student's original preferences, "scenario" used adjusted preferences. Describe in two or three sentences what changed and why it matters.

Respond with ONLY a JSON object: {"summary": "..."}

Rankings:
%s`
