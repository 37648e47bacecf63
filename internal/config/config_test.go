package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/climate-vuln/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.RateLimitRPS)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 2, cfg.Worker.Count)
	assert.Equal(t, 20, cfg.Worker.BufferSize)
	assert.Equal(t, []string{"2020", "2030", "2050", "2080"}, cfg.Scenarios.Choices)
	assert.Equal(t, "2020", cfg.Scenarios.Default)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, filepath.Join("data", "assets.csv"), cfg.AssetsPath())
	assert.Equal(t, filepath.Join("data", "hazards.csv"), cfg.HazardsPath())
	assert.Empty(t, cfg.Data.WeightsFile)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_RPS", "20")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("HAZARDS_FILE", "/etc/hazards.csv")
	t.Setenv("SCENARIOS", " 2020 ,2100,, ")
	t.Setenv("DEFAULT_SCENARIO", "2100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.RateLimitRPS)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, filepath.Join("/srv/data", "assets.csv"), cfg.AssetsPath())
	assert.Equal(t, "/etc/hazards.csv", cfg.HazardsPath())
	assert.Equal(t, []string{"2020", "2100"}, cfg.Scenarios.Choices)
	assert.Equal(t, "2100", cfg.Scenarios.Default)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"SERVER_PORT", "70000", "port"},
		{"LOG_LEVEL", "verbose", "log level"},
		{"LOG_FORMAT", "xml", "log format"},
		{"WORKER_COUNT", "0", "WORKER_COUNT"},
		{"RATE_LIMIT_RPS", "0", "RATE_LIMIT_RPS"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWeights_DefaultWhenEmpty(t *testing.T) {
	w, err := LoadWeights("")
	require.NoError(t, err)
	assert.Equal(t, 0.4, w.Exposure)
	assert.Len(t, w.ExposureHazards, 5)
}

func TestLoadWeights_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := `
exposure: 0.5
sensitivity: 0.25
criticality: 0.25
exposure_hazards: [heat_index, flood_risk]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	w, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, w.Exposure)
	assert.Equal(t, 0.25, w.Sensitivity)
	assert.Equal(t, 0.6, w.AgeShare, "unset fields keep defaults")
	assert.Equal(t, []models.Hazard{models.HazardHeatIndex, models.HazardFloodRisk}, w.ExposureHazards)
}

func TestLoadWeights_Missing(t *testing.T) {
	_, err := LoadWeights(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestParseWeights_Errors(t *testing.T) {
	tests := map[string]string{
		"bad sum":        "exposure: 0.9\n",
		"unknown hazard": "exposure_hazards: [hail]\n",
		"bad yaml":       "exposure: [\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseWeights([]byte(in))
			assert.Error(t, err)
		})
	}
}
