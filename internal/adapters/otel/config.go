package otel

import "github.com/emiliopalmerini/agentlab/internal/infrastructure/config"

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// FromTelemetry maps application telemetry settings onto exporter config.
func FromTelemetry(t config.Telemetry) Config {
	return Config{
		Endpoint: t.Endpoint,
		Enabled:  t.Enabled,
		Insecure: t.Insecure,
	}
}
