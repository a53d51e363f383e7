package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayscout/stayscout/internal/cache"
	"github.com/stayscout/stayscout/internal/config"
	"github.com/stayscout/stayscout/internal/core"
	"github.com/stayscout/stayscout/internal/core/agent"
	"github.com/stayscout/stayscout/internal/core/model"
	"github.com/stayscout/stayscout/internal/llm"
	"github.com/stayscout/stayscout/internal/provider"
)

type Server struct {
	Engine *core.Engine
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using defaults.", cfgPath, err)
		cfg = config.Default()
	}

	// Env vars override the file for deploy-time settings.
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("SIGNALS_URL"); v != "" {
		cfg.Signals.BaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	if llmClient == nil {
		log.Println("No LLM credential configured; running with deterministic scoring only")
	}

	signalCache := cache.New(cfg.Cache)
	providerClient := provider.NewClient(cfg.Signals)
	runner := agent.NewRunner(llmClient, cfg.Prompts)

	return &Server{
		Engine: core.NewEngine(signalCache, providerClient, runner, cfg.Pipeline),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.POST("/rank", s.Rank)
	r.POST("/whatif", s.WhatIf)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
}

type RankRequest struct {
	Candidates   []model.Candidate `json:"candidates" binding:"required,min=1,max=10"`
	Preferences  model.Preferences `json:"preferences"`
	Bounds       *model.Bounds     `json:"bounds,omitempty"`
	IncludeAreas bool              `json:"include_areas"`
}

type RankResponse struct {
	RunID   string                               `json:"run_id"`
	Ranking []model.RankingEntry                 `json:"ranking"`
	Details map[string]model.AggregatedCandidate `json:"details"`
	Areas   *model.AreaResult                    `json:"areas,omitempty"`
}

func (s *Server) Rank(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if msg := validateRequest(req.Candidates, req.Preferences); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()

	result, err := s.Engine.RankCandidates(ctx, req.Candidates, req.Preferences)
	if err != nil {
		status := http.StatusInternalServerError
		var toolErr *provider.ToolError
		if errors.As(err, &toolErr) {
			status = http.StatusBadGateway
		}
		log.Printf("rank failed: %v", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	resp := RankResponse{
		RunID:   uuid.New().String(),
		Ranking: result.Ranking,
		Details: result.Details,
	}

	if req.IncludeAreas {
		// Area ranking is best-effort; a missing overlay degrades to a
		// candidate-only response.
		areas, err := s.Engine.RankAreas(ctx, req.Candidates, req.Preferences, req.Bounds)
		if err != nil {
			log.Printf("area ranking failed: %v", err)
		} else {
			resp.Areas = areas
		}
	}

	c.JSON(http.StatusOK, resp)
}

type WhatIfRequest struct {
	Candidates      []model.Candidate `json:"candidates" binding:"required,min=1,max=10"`
	Preferences     model.Preferences `json:"preferences"`
	BudgetDelta     float64           `json:"budget_delta"`
	CommuteDeltaMin float64           `json:"commute_delta_min"`
}

type WhatIfResponse struct {
	RunID     string            `json:"run_id"`
	Baseline  *model.RankResult `json:"baseline"`
	Scenario  *model.RankResult `json:"scenario"`
	Narrative string            `json:"narrative"`
	Adjusted  model.Preferences `json:"adjusted_preferences"`
}

func (s *Server) WhatIf(c *gin.Context) {
	var req WhatIfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if msg := validateRequest(req.Candidates, req.Preferences); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	result, err := s.Engine.WhatIf(c.Request.Context(), req.Candidates, req.Preferences, req.BudgetDelta, req.CommuteDeltaMin)
	if err != nil {
		status := http.StatusInternalServerError
		var toolErr *provider.ToolError
		if errors.As(err, &toolErr) {
			status = http.StatusBadGateway
		}
		log.Printf("what-if failed: %v", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, WhatIfResponse{
		RunID:     uuid.New().String(),
		Baseline:  result.Baseline,
		Scenario:  result.Scenario,
		Narrative: result.Narrative,
		Adjusted:  result.Adjusted,
	})
}

// validateRequest rejects malformed shapes before any pipeline work begins.
func validateRequest(cands []model.Candidate, prefs model.Preferences) string {
	seen := make(map[string]bool, len(cands))
	for _, cand := range cands {
		if cand.ID == "" {
			return "candidate id must not be empty"
		}
		if seen[cand.ID] {
			return "duplicate candidate id: " + cand.ID
		}
		seen[cand.ID] = true
		if cand.Lat < -90 || cand.Lat > 90 || cand.Lon < -180 || cand.Lon > 180 {
			return "candidate " + cand.ID + " has out-of-range coordinates"
		}
	}
	if prefs.RadiusM <= 0 {
		return "radius_m must be positive"
	}
	if prefs.WindowDays <= 0 {
		return "window_days must be positive"
	}
	return ""
}
