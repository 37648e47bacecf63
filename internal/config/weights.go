package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

// yamlWeights is the on-disk weights layout. Omitted fields keep their defaults.
type yamlWeights struct {
	Exposure        *float64 `yaml:"exposure"`
	Sensitivity     *float64 `yaml:"sensitivity"`
	Criticality     *float64 `yaml:"criticality"`
	AgeShare        *float64 `yaml:"age_share"`
	CapacityShare   *float64 `yaml:"capacity_share"`
	ExposureHazards []string `yaml:"exposure_hazards"`
}

// LoadWeights returns the default weights when path is empty, otherwise the YAML
// file at path layered over the defaults.
func LoadWeights(path string) (vulnerability.Weights, error) {
	if path == "" {
		return vulnerability.DefaultWeights(), nil
	}

	//nolint:gosec // G304: path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return vulnerability.Weights{}, fmt.Errorf("failed to read weights file %s: %w", path, err)
	}
	return ParseWeights(data)
}

func ParseWeights(data []byte) (vulnerability.Weights, error) {
	var yw yamlWeights
	if err := yaml.Unmarshal(data, &yw); err != nil {
		return vulnerability.Weights{}, fmt.Errorf("failed to parse weights YAML: %w", err)
	}

	w := vulnerability.DefaultWeights()
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{yw.Exposure, &w.Exposure},
		{yw.Sensitivity, &w.Sensitivity},
		{yw.Criticality, &w.Criticality},
		{yw.AgeShare, &w.AgeShare},
		{yw.CapacityShare, &w.CapacityShare},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	if yw.ExposureHazards != nil {
		w.ExposureHazards = make([]models.Hazard, 0, len(yw.ExposureHazards))
		for _, name := range yw.ExposureHazards {
			h, ok := models.ParseHazard(name)
			if !ok {
				return vulnerability.Weights{}, fmt.Errorf("unknown hazard in exposure_hazards: %q", name)
			}
			w.ExposureHazards = append(w.ExposureHazards, h)
		}
	}

	if err := w.Validate(); err != nil {
		return vulnerability.Weights{}, fmt.Errorf("invalid weights: %w", err)
	}
	return w, nil
}
