package vulnerability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mr1hm/climate-vuln/internal/models"
)

func TestMultiHazardIndex(t *testing.T) {
	hz := models.HazardIndices{
		models.HazardHeatIndex: 0.4,
		models.HazardFloodRisk: 0.8,
	}

	assert.InDelta(t, 0.6, MultiHazardIndex(hz, []models.Hazard{models.HazardHeatIndex, models.HazardFloodRisk}), 1e-9)
	// wind_extreme is absent and left out of the mean
	assert.InDelta(t, 0.4, MultiHazardIndex(hz, []models.Hazard{models.HazardHeatIndex, models.HazardWindExtreme}), 1e-9)
	assert.Equal(t, 0.0, MultiHazardIndex(hz, []models.Hazard{models.HazardWindExtreme, models.HazardHeavyRain}))
	assert.Equal(t, 0.0, MultiHazardIndex(hz, nil))
}

func TestApplyMultiHazard(t *testing.T) {
	assets := []models.ScoredAsset{
		{Hazards: models.HazardIndices{models.HazardHeatIndex: 1}},
		{Hazards: models.HazardIndices{models.HazardHeatIndex: 0}},
	}
	ApplyMultiHazard(assets, []models.Hazard{models.HazardHeatIndex})

	assert.Equal(t, 1.0, assets[0].MultiHazardIndex)
	assert.Equal(t, 0.0, assets[1].MultiHazardIndex)
}

func TestParseHazards(t *testing.T) {
	got := ParseHazards("heat_index, bogus,FLOOD_RISK,heat_index,")
	assert.Equal(t, []models.Hazard{models.HazardHeatIndex, models.HazardFloodRisk}, got)

	assert.Empty(t, ParseHazards(""))
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{0, BandGreen},
		{24.9, BandGreen},
		{25, BandYellow},
		{49.99, BandYellow},
		{50, BandOrange},
		{74.9, BandOrange},
		{75, BandRed},
		{100, BandRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.score), "score %v", tt.score)
	}
}
