package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config defines all environment-driven bootstrap options. Runtime-tunable
// behavior lives in the settings package, not here.
type Config struct {
	Host            string `env:"RELAY_HOST" envDefault:"0.0.0.0"`
	Port            int    `env:"RELAY_PORT" envDefault:"8000"`
	AdminPort       int    `env:"RELAY_ADMIN_PORT" envDefault:"8001"`
	UpstreamBaseURL string `env:"RELAY_UPSTREAM_BASE_URL" envDefault:"https://api.deepseek.com/v1"`
	UpstreamAPIKey  string `env:"RELAY_UPSTREAM_API_KEY"`
	ModelMapFile    string `env:"RELAY_MODEL_MAP_FILE"`
	LogLevel        string `env:"RELAY_LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and parses environment variables into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	return cfg, nil
}
