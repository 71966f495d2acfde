package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration, parsed from environment variables.
type Config struct {
	Address       string `env:"ADDRESS" envDefault:":8080"`
	DatabaseDSN   string `env:"DATABASE_DSN" envDefault:"user=admin password=password dbname=matchpoint sslmode=disable"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"your_secret_key_please_change_in_production"`
	LogLevel      int    `env:"LOG_LEVEL" envDefault:"0"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
