package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Database holds libSQL connection settings. A file: URL opens a local
// database; libsql:// or https:// URLs connect to a remote server.
type Database struct {
	URL       string `envconfig:"URL" default:"file:agentlab.db"`
	AuthToken string `envconfig:"AUTH_TOKEN"`
}

// Telemetry holds OTLP metric exporter settings.
type Telemetry struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Endpoint string `envconfig:"ENDPOINT"`
	Insecure bool   `envconfig:"INSECURE" default:"false"`
}

// Config is the full application configuration, read from AGENTLAB_* variables
// (AGENTLAB_DATABASE_URL, AGENTLAB_OTEL_ENDPOINT, ...).
type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogMode         string        `envconfig:"LOG_MODE" default:"development"`

	Database  Database  `envconfig:"DATABASE"`
	Telemetry Telemetry `envconfig:"OTEL"`
}

const envPrefix = "AGENTLAB"

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
