package vulnerability

import (
	"strings"

	"github.com/mr1hm/climate-vuln/internal/models"
)

// DefaultMultiHazardSelection mirrors the dashboard's initial checkbox state.
var DefaultMultiHazardSelection = []models.Hazard{
	models.HazardHeatIndex,
	models.HazardFloodRisk,
	models.HazardHeavyRain,
}

// MultiHazardIndex averages the selected hazards present in hz. Absent hazards are
// skipped; when none of the selection is present the index is 0.
func MultiHazardIndex(hz models.HazardIndices, selected []models.Hazard) float64 {
	var sum float64
	var n int
	for _, h := range selected {
		if v, ok := hz.Get(h); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clamp(sum/float64(n), 0, 1)
}

// ApplyMultiHazard sets MultiHazardIndex on every asset in place.
func ApplyMultiHazard(assets []models.ScoredAsset, selected []models.Hazard) {
	for i := range assets {
		assets[i].MultiHazardIndex = MultiHazardIndex(assets[i].Hazards, selected)
	}
}

// ParseHazards parses a comma-separated hazard list. Unknown names and duplicates are dropped.
func ParseHazards(s string) []models.Hazard {
	seen := make(map[models.Hazard]bool)
	out := make([]models.Hazard, 0)
	for _, part := range strings.Split(s, ",") {
		h, ok := models.ParseHazard(part)
		if !ok || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
