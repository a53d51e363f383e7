package provider

import (
	"encoding/json"
)

// Typed views over the provider-defined payloads. The pipeline only reads
// the fields it expects to exist; anything missing decodes to its zero value
// and is treated as a neutral input, not an error.

type CrimeSummary struct {
	CountsByType map[string]int `json:"counts_by_type"`
	RateHint     string         `json:"rate_hint"`
	TrendHint    string         `json:"trend_hint"`
	Source       string         `json:"source"`
	UpdatedAt    string         `json:"updated_at"`
}

type CommuteEstimate struct {
	DistanceKM      float64 `json:"distance_km"`
	EstMinutes      float64 `json:"est_minutes"`
	NearTransitHint string  `json:"near_transit_hint"`
	Source          string  `json:"source"`
}

type POI struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	DistM    int    `json:"dist_m"`
}

type POISummary struct {
	Results          []POI          `json:"results"`
	CountsByCategory map[string]int `json:"counts_by_category"`
	Source           string         `json:"source"`
}

type CellProperties struct {
	CellID   string  `json:"cell_id"`
	AvgPrice float64 `json:"avg_price"`
	Count    int     `json:"count"`
}

type CellGeometry struct {
	Type string `json:"type"`
	// GeoJSON polygon rings: vertices are [lon, lat] pairs.
	Coordinates [][][]float64 `json:"coordinates"`
}

type GridFeature struct {
	Type       string         `json:"type"`
	Geometry   CellGeometry   `json:"geometry"`
	Properties CellProperties `json:"properties"`
}

type RentGrid struct {
	Type     string        `json:"type"`
	Features []GridFeature `json:"features"`
	Source   string        `json:"source"`
}

type RentPoint struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Price    float64 `json:"price"`
	Bedroom  float64 `json:"bedroom"`
	Bathroom float64 `json:"bathroom"`
	Den      float64 `json:"den"`
}

type RentPoints struct {
	Results []RentPoint `json:"results"`
}

// Decode unmarshals a raw payload into a typed view, zero-valuing anything
// that fails to decode.
func Decode[T any](raw json.RawMessage) T {
	var out T
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}
