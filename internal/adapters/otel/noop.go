package otel

import (
	"context"

	"github.com/emiliopalmerini/agentlab/internal/domain"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordBattle(ctx context.Context, b *domain.Battle) {}

func (e *NoOpExporter) RecordDashboard(ctx context.Context, s domain.Summary) {}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
