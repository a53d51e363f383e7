package model

type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AreaCandidate is one rent-grid cell promoted to a rankable area.
type AreaCandidate struct {
	AreaID   string  `json:"area_id"`
	Label    string  `json:"label"`
	Center   Center  `json:"center"`
	AvgPrice float64 `json:"avg_price"`
	Count    int     `json:"count"`
}

type AreaSubscores struct {
	Affordability float64 `json:"affordability"`
	Safety        float64 `json:"safety"`
	Transit       float64 `json:"transit"`
	Amenities     float64 `json:"amenities"`
}

// AreaScored adds the four sub-scores and their evidence to an area.
type AreaScored struct {
	AreaCandidate
	Subscores AreaSubscores `json:"subscores"`
	Evidence  []Evidence    `json:"evidence"`
}

// AreaResult is the optional area-level portion of a rank response. Markers
// hold at most the configured top-N areas in ranked order.
type AreaResult struct {
	Markers []RankingEntry        `json:"markers"`
	Details map[string]AreaScored `json:"details"`
	Summary string                `json:"summary"`
}
