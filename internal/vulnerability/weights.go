package vulnerability

import (
	"fmt"
	"math"

	"github.com/mr1hm/climate-vuln/internal/models"
)

const weightTolerance = 0.001

// Weights controls how the components blend into the composite score.
// Exposure, Sensitivity and Criticality must sum to 1, as must AgeShare and CapacityShare.
type Weights struct {
	Exposure    float64
	Sensitivity float64
	Criticality float64

	AgeShare      float64
	CapacityShare float64

	// ExposureHazards limits which hazards feed exposure. Empty means all.
	ExposureHazards []models.Hazard
}

func DefaultWeights() Weights {
	return Weights{
		Exposure:        0.4,
		Sensitivity:     0.3,
		Criticality:     0.3,
		AgeShare:        0.6,
		CapacityShare:   0.4,
		ExposureHazards: models.Hazards(),
	}
}

func (w Weights) Sum() float64 {
	return w.Exposure + w.Sensitivity + w.Criticality
}

// Validate checks for negative weights and that both weight groups sum to 1.
func (w Weights) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"exposure", w.Exposure},
		{"sensitivity", w.Sensitivity},
		{"criticality", w.Criticality},
		{"age_share", w.AgeShare},
		{"capacity_share", w.CapacityShare},
	}
	for _, n := range named {
		if n.v < 0 || math.IsNaN(n.v) {
			return fmt.Errorf("invalid %s weight: %v", n.name, n.v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("component weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	if s := w.AgeShare + w.CapacityShare; math.Abs(s-1.0) > weightTolerance {
		return fmt.Errorf("sensitivity shares sum to %.4f, must sum to 1.0", s)
	}
	return nil
}

func (w Weights) exposureHazards() []models.Hazard {
	if len(w.ExposureHazards) == 0 {
		return models.Hazards()
	}
	return w.ExposureHazards
}
