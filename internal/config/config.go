// Package config loads the solver/service configuration from YAML, with
// environment variables taking precedence for deploy-time settings.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"clrpsa/internal/opt"
)

type Config struct {
	// Addr is the HTTP listen address of the API service.
	Addr string `yaml:"addr"`
	// DataDir holds the instance datasets (one subdirectory per dataset).
	DataDir string `yaml:"dataDir"`
	// TraceDir receives written decision traces; empty disables tracing.
	TraceDir string `yaml:"traceDir"`
	// DatabaseURL enables the Postgres run store when set.
	DatabaseURL string `yaml:"databaseUrl"`
	// RedisURL enables the Redis progress broker when set.
	RedisURL string `yaml:"redisUrl"`
	// ProgressEventsPerSec throttles progress publication per run.
	ProgressEventsPerSec float64 `yaml:"progressEventsPerSec"`

	Annealing opt.Parameters `yaml:"annealing"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr:                 ":8080",
		DataDir:              "instances",
		ProgressEventsPerSec: 10,
		Annealing:            opt.DefaultParameters(),
	}
}

// Load reads a YAML config file on top of the defaults and applies
// environment overrides. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
}
