package ports

import (
	"context"

	"github.com/emiliopalmerini/agentlab/internal/domain"
)

// MetricsExporter exports domain metrics to an external observability system.
type MetricsExporter interface {
	// RecordBattle records a completed battle and the score movement it caused.
	RecordBattle(ctx context.Context, battle *domain.Battle)
	// RecordDashboard records the size of a freshly computed dashboard.
	RecordDashboard(ctx context.Context, summary domain.Summary)
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
