package api

import (
	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	// Center is the mean [lon, lat] of the features, omitted when empty.
	Center  []float64 `json:"center,omitempty"`
	ColorBy string    `json:"color_by"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

const colorByScore = "vulnerability_score"
const colorByMultiHazard = "multi_hazard_index"

// normalizeColorBy falls back to the vulnerability score for unknown variables.
func normalizeColorBy(v string) string {
	if v == colorByScore || v == colorByMultiHazard {
		return v
	}
	if h, ok := models.ParseHazard(v); ok {
		return string(h)
	}
	return colorByScore
}

// availableColorBy falls back to the vulnerability score when colorBy names a hazard
// that none of the assets carry for their scenario.
func availableColorBy(assets []models.ScoredAsset, colorBy string) string {
	if colorBy == colorByScore || colorBy == colorByMultiHazard {
		return colorBy
	}
	for _, a := range assets {
		if _, ok := a.Hazards.Get(models.Hazard(colorBy)); ok {
			return colorBy
		}
	}
	return colorByScore
}

func colorByLabel(v string) string {
	switch v {
	case colorByScore:
		return "Vulnerability"
	case colorByMultiHazard:
		return "Multi-hazard index"
	default:
		return models.Hazard(v).Label()
	}
}

// colorValue returns the raw value for colorBy and its 0-100 equivalent.
func colorValue(a models.ScoredAsset, colorBy string) (raw, score float64) {
	switch colorBy {
	case colorByScore:
		return a.VulnerabilityScore, a.VulnerabilityScore
	case colorByMultiHazard:
		raw = a.MultiHazardIndex
	default:
		raw, _ = a.Hazards.Get(models.Hazard(colorBy))
	}
	return raw, raw * 100
}

func toGeoJSON(assets []models.ScoredAsset, colorBy string) FeatureCollection {
	colorBy = availableColorBy(assets, colorBy)
	features := make([]Feature, 0, len(assets))
	var sumLat, sumLon float64

	for _, a := range assets {
		raw, score := colorValue(a, colorBy)
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{a.Longitude, a.Latitude},
			},
			Properties: map[string]any{
				"asset_id":            a.AssetID,
				"type":                string(a.Type),
				"scenario":            a.Scenario,
				"vulnerability_score": a.VulnerabilityScore,
				"multi_hazard_index":  a.MultiHazardIndex,
				"capacity_kVA":        a.CapacityKVA,
				"age_years":           a.AgeYears,
				"criticality":         a.Criticality,
				"color_label":         colorByLabel(colorBy),
				"color_value":         raw,
				"score_0_100":         score,
				"color":               string(vulnerability.BandFor(score)),
			},
		}
		features = append(features, f)
		sumLat += a.Latitude
		sumLon += a.Longitude
	}

	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		ColorBy:  colorBy,
	}
	if n := float64(len(assets)); n > 0 {
		fc.Center = []float64{sumLon / n, sumLat / n}
	}
	return fc
}
