package vulnerability

import (
	"fmt"

	"github.com/mr1hm/climate-vuln/internal/models"
)

// MediumExposure is the hazard value assumed when a scenario or a cell is missing.
const MediumExposure = 0.5

// Result is the output of Compute.
type Result struct {
	Assets []models.ScoredAsset
	// Fallback is true when the scenario was not in the hazard table.
	Fallback bool
}

// Compute scores every asset under the given scenario. It never fails on an unknown
// scenario; it fails only on incomplete assets or invalid weights.
func Compute(assets []models.Asset, table models.HazardTable, scenario string, w Weights) (Result, error) {
	if err := w.Validate(); err != nil {
		return Result{}, fmt.Errorf("validate weights: %w", err)
	}
	for i, a := range assets {
		if a.AssetID == "" {
			return Result{}, &MissingColumnError{Column: "asset_id", Row: i + 1}
		}
		if a.Type == "" {
			return Result{}, &MissingColumnError{Column: "type", Row: i + 1}
		}
	}

	hz, known := ResolveHazards(table, scenario)
	exposure := Exposure(hz, w.exposureHazards())

	ages := newRange()
	capacities := newRange()
	crits := newRange()
	for _, a := range assets {
		ages.observe(a.AgeYears)
		capacities.observe(a.CapacityKVA)
		crits.observe(a.Criticality)
	}

	scored := make([]models.ScoredAsset, 0, len(assets))
	for _, a := range assets {
		sensitivity := w.AgeShare*ages.normalize(a.AgeYears) + w.CapacityShare*capacities.normalize(a.CapacityKVA)
		critNorm := crits.normalize(a.Criticality)

		score := 100 * (w.Exposure*exposure + w.Sensitivity*sensitivity + w.Criticality*critNorm)

		scored = append(scored, models.ScoredAsset{
			Asset:              a,
			Scenario:           scenario,
			Hazards:            hz.Clone(),
			Exposure:           exposure,
			Sensitivity:        clamp(sensitivity, 0, 1),
			CriticalityNorm:    critNorm,
			VulnerabilityScore: clamp(score, 0, 100),
		})
	}

	return Result{Assets: scored, Fallback: !known}, nil
}

// ResolveHazards returns the hazard indices for scenario, filling empty cells with
// MediumExposure. The bool is false when the scenario is unknown, in which case
// every hazard is MediumExposure.
func ResolveHazards(table models.HazardTable, scenario string) (models.HazardIndices, bool) {
	hz, ok := table.Lookup(scenario)
	if !ok {
		out := make(models.HazardIndices, len(models.Hazards()))
		for _, h := range models.Hazards() {
			out[h] = MediumExposure
		}
		return out, false
	}

	out := make(models.HazardIndices, len(table.Columns))
	for _, h := range table.Columns {
		if v, present := hz.Get(h); present {
			out[h] = v
		} else {
			out[h] = MediumExposure
		}
	}
	return out, true
}

// Exposure is the mean of the selected hazards present in hz, or MediumExposure
// when none of them are present.
func Exposure(hz models.HazardIndices, selected []models.Hazard) float64 {
	var sum float64
	var n int
	for _, h := range selected {
		if v, ok := hz.Get(h); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return MediumExposure
	}
	return clamp(sum/float64(n), 0, 1)
}

type valueRange struct {
	min, max float64
	seen     bool
}

func newRange() *valueRange { return &valueRange{} }

func (r *valueRange) observe(v float64) {
	if !r.seen {
		r.min, r.max, r.seen = v, v, true
		return
	}
	if v < r.min {
		r.min = v
	}
	if v > r.max {
		r.max = v
	}
}

// normalize maps v into [0,1]; a degenerate range maps to the midpoint.
func (r *valueRange) normalize(v float64) float64 {
	span := r.max - r.min
	if !r.seen || span == 0 {
		return 0.5
	}
	return clamp((v-r.min)/span, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
