package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type SignalsConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type CacheConfig struct {
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// PipelineConfig holds the tunable pipeline anchors. The commute anchor is
// the fixed primary destination all commute estimates are measured against.
type PipelineConfig struct {
	CampusLat float64 `toml:"campus_lat"`
	CampusLon float64 `toml:"campus_lon"`
	CellKM    float64 `toml:"cell_km"`
	MinCount  int     `toml:"min_count"`
}

// RolePrompts are the instruction templates for each agent role. Each
// template receives the role's JSON payload via %s. Empty entries fall back
// to the compiled-in defaults.
type RolePrompts struct {
	Safety        string `toml:"safety"`
	Transit       string `toml:"transit"`
	Amenities     string `toml:"amenities"`
	Aggregator    string `toml:"aggregator"`
	AreaRanking   string `toml:"area_ranking"`
	AreaSummary   string `toml:"area_summary"`
	WhatIfSummary string `toml:"what_if_summary"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Signals  SignalsConfig  `toml:"signals"`
	Cache    CacheConfig    `toml:"cache"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Prompts  RolePrompts    `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a usable configuration when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.Signals.BaseURL == "" {
		c.Signals.BaseURL = "http://localhost:8001"
	}
	if c.Signals.TimeoutSeconds == 0 {
		c.Signals.TimeoutSeconds = 12
	}
	if c.Pipeline.CampusLat == 0 {
		// University of Toronto St. George campus.
		c.Pipeline.CampusLat = 43.6629
	}
	if c.Pipeline.CampusLon == 0 {
		c.Pipeline.CampusLon = -79.3957
	}
	if c.Pipeline.CellKM == 0 {
		c.Pipeline.CellKM = 1.0
	}
	if c.Pipeline.MinCount == 0 {
		c.Pipeline.MinCount = 3
	}
}
