package domain

// AgeBand is the share of an audience falling into one age range.
type AgeBand struct {
	Range string  `json:"range"` // e.g. "25-34"
	Share float64 `json:"share"` // 0..1
}

// Demographics describes a podcast's audience composition.
//
// Absence is meaningful: a nil *Demographics held in a settled cache entry
// means the backend was asked and had nothing, which is distinct from
// "not yet checked".
type Demographics struct {
	AgeBands        []AgeBand `json:"age_bands,omitempty"`
	MaleShare       float64   `json:"male_share,omitempty"`
	FemaleShare     float64   `json:"female_share,omitempty"`
	PurchasingPower string    `json:"purchasing_power,omitempty"` // low, medium, high
	TopLocations    []string  `json:"top_locations,omitempty"`
	EducationLevel  string    `json:"education_level,omitempty"`
}
