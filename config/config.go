// Package config loads process configuration from the environment, with an
// optional .env file for local development. All variables are prefixed with
// AGORA_ (e.g. AGORA_PORT).
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	DataDir  string `envconfig:"DATA_DIR" default:"./data"`
	InMemory bool   `envconfig:"STORE_IN_MEMORY" default:"false"`

	// MasterKey decrypts per-agent API key blobs. It is sourced from the
	// environment only, never persisted.
	MasterKey string `envconfig:"MASTER_KEY" required:"true"`

	NATSURL string `envconfig:"NATS_URL" default:""`

	CycleTimeout      time.Duration `envconfig:"CYCLE_TIMEOUT" default:"90s"`
	WakeCooldown      time.Duration `envconfig:"WAKE_COOLDOWN" default:"60s"`
	SchedulerEnabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SchedulerInterval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"5m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("agora", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}
	return &cfg, nil
}
