package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Worker    WorkerConfig
	Data      DataConfig
	Scenarios ScenarioConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	RateLimitRPS    int
	ShutdownTimeout time.Duration
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type DataConfig struct {
	Dir         string
	AssetsFile  string
	HazardsFile string
	WeightsFile string // optional YAML, empty means default weights
}

type ScenarioConfig struct {
	Choices []string // offered even when hazards.csv lacks them
	Default string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 5),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Data: DataConfig{
			Dir:         getEnv("DATA_DIR", "./data"),
			AssetsFile:  getEnv("ASSETS_FILE", "assets.csv"),
			HazardsFile: getEnv("HAZARDS_FILE", "hazards.csv"),
			WeightsFile: getEnv("WEIGHTS_FILE", ""),
		},
		Scenarios: ScenarioConfig{
			Choices: getEnvList("SCENARIOS", []string{"2020", "2030", "2050", "2080"}),
			Default: getEnv("DEFAULT_SCENARIO", "2020"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", ":memory:"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %d", c.Server.RateLimitRPS)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %s", c.Server.ShutdownTimeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("WORKER_BUFFER_SIZE must not be negative")
	}
	if strings.TrimSpace(c.Scenarios.Default) == "" {
		return fmt.Errorf("DEFAULT_SCENARIO must not be empty")
	}
	if c.Data.AssetsFile == "" {
		return fmt.Errorf("ASSETS_FILE must not be empty")
	}

	return nil
}

// AssetsPath resolves the asset file against the data directory.
func (c *Config) AssetsPath() string { return c.resolve(c.Data.AssetsFile) }

// HazardsPath resolves the hazard file against the data directory.
func (c *Config) HazardsPath() string { return c.resolve(c.Data.HazardsFile) }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
