/*
Package config loads server configuration from the environment.

PURPOSE:
  One struct, decoded once at startup. A .env file is loaded first when
  present (development convenience); real deployments set the variables
  directly. Every field has a default so a bare `go run ./cmd/server`
  works.

SEE ALSO:
  - cmd/server/main.go: The only consumer
*/
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the server's environment-derived configuration.
type Config struct {
	Port        int    `env:"PORT,default=8080"`
	DBPath      string `env:"DB_PATH,default=./data/cryptohaven.db"`
	AccrualCron string `env:"ACCRUAL_CRON,default=0 0 * * *"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// Load reads configuration from a .env file (if present) and the
// process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded configuration from .env")
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
