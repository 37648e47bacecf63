package models

import "strings"

type Hazard string

const (
	HazardHeatIndex   Hazard = "heat_index"
	HazardFloodRisk   Hazard = "flood_risk"
	HazardHeavyRain   Hazard = "heavy_rain"
	HazardFreezeThaw  Hazard = "freeze_thaw"
	HazardWindExtreme Hazard = "wind_extreme"
)

var hazards = []Hazard{HazardHeatIndex, HazardFloodRisk, HazardHeavyRain, HazardFreezeThaw, HazardWindExtreme}

// Hazards returns every hazard in column order.
func Hazards() []Hazard {
	out := make([]Hazard, len(hazards))
	copy(out, hazards)
	return out
}

func ParseHazard(s string) (Hazard, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, h := range hazards {
		if string(h) == s {
			return h, true
		}
	}
	return "", false
}

// Label is the human-readable name used in map popups.
func (h Hazard) Label() string {
	switch h {
	case HazardHeatIndex:
		return "Heat hazard"
	case HazardFloodRisk:
		return "Flood risk"
	case HazardHeavyRain:
		return "Heavy rain"
	case HazardFreezeThaw:
		return "Freeze-thaw cycles"
	case HazardWindExtreme:
		return "Extreme wind"
	default:
		return string(h)
	}
}

// HazardIndices holds the hazard values present for one scenario, each in [0,1].
// A hazard missing from the map was not provided.
type HazardIndices map[Hazard]float64

func (h HazardIndices) Get(hz Hazard) (float64, bool) {
	v, ok := h[hz]
	return v, ok
}

func (h HazardIndices) Clone() HazardIndices {
	out := make(HazardIndices, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// HazardTable is the static scenario lookup loaded from hazards.csv.
type HazardTable struct {
	Columns   []Hazard // hazard columns present in the source file
	Scenarios map[string]HazardIndices
}

func (t HazardTable) Lookup(scenario string) (HazardIndices, bool) {
	if t.Scenarios == nil {
		return nil, false
	}
	h, ok := t.Scenarios[strings.TrimSpace(scenario)]
	return h, ok
}

// Labels returns the scenario labels in the table, unsorted.
func (t HazardTable) Labels() []string {
	out := make([]string, 0, len(t.Scenarios))
	for k := range t.Scenarios {
		out = append(out, k)
	}
	return out
}
