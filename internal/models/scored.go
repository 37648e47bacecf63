package models

// ScoredAsset is an Asset joined with a scenario's hazard indices and the derived
// vulnerability components. It is recomputed, never persisted beyond the in-memory store.
type ScoredAsset struct {
	Asset
	Scenario           string
	Hazards            HazardIndices
	Exposure           float64 // [0,1]
	Sensitivity        float64 // [0,1]
	CriticalityNorm    float64 // [0,1]
	VulnerabilityScore float64 // [0,100]
	MultiHazardIndex   float64 // [0,1], depends on the caller's hazard selection
}
