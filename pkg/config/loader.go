package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emberops/firefleet/pkg/logger"
)

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads config from the given path, falling back to the
// defaults when the path is empty or unreadable. Environment overrides are
// applied either way.
func LoadConfigOrDefault(path string) *Config {
	var cfg *Config
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			logger.Warnf("could not load config from %s: %v", path, err)
		} else {
			cfg = loaded
		}
	}
	if cfg == nil {
		cfg = GetDefaultConfig()
	}
	MergeWithEnvironment(cfg)
	return cfg
}

// MergeWithEnvironment applies FIREFLEET_* environment variable overrides.
func MergeWithEnvironment(cfg *Config) {
	if level := os.Getenv("FIREFLEET_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if noColor := os.Getenv("FIREFLEET_NO_COLOR"); noColor != "" {
		if v, err := strconv.ParseBool(noColor); err == nil {
			cfg.Logging.NoColor = v
		}
	}
	if zoneFile := os.Getenv("FIREFLEET_ZONE_FILE"); zoneFile != "" {
		cfg.Coordinator.ZoneFile = zoneFile
	}
	if pool := os.Getenv("FIREFLEET_WORKER_POOL_SIZE"); pool != "" {
		if v, err := strconv.Atoi(pool); err == nil && v > 0 {
			cfg.Coordinator.WorkerPoolSize = v
		}
	}
	if interval := os.Getenv("FIREFLEET_PROACTIVE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			cfg.Coordinator.ProactiveInterval = d
		}
	}
	if interval := os.Getenv("FIREFLEET_CLEANUP_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			cfg.Coordinator.CleanupInterval = d
		}
	}
	if speed := os.Getenv("FIREFLEET_UNIT_MAX_SPEED"); speed != "" {
		if v, err := strconv.ParseFloat(speed, 64); err == nil && v > 0 {
			cfg.Unit.MaxSpeed = v
		}
	}
}
