package model

// Candidate is a caller-supplied point of interest. Identity is ID, unique
// within a request; candidates are immutable through the pipeline.
type Candidate struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// PriceRange bounds are optional; a nil bound means unbounded on that side.
type PriceRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type Weights struct {
	Safety    float64 `json:"safety"`
	Transit   float64 `json:"transit"`
	Amenities float64 `json:"amenities"`
}

type Preferences struct {
	Weights       Weights     `json:"weights"`
	RadiusM       int         `json:"radius_m"`
	WindowDays    int         `json:"window_days"`
	POICategories []string    `json:"poi_categories"`
	PriceRange    *PriceRange `json:"price_range,omitempty"`
}

// Bounds is a lat/lon bounding box in the provider's wire shape.
type Bounds struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}
