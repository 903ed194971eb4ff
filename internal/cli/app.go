package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/agentlab/internal/adapters/otel"
	"github.com/emiliopalmerini/agentlab/internal/adapters/turso"
	"github.com/emiliopalmerini/agentlab/internal/infrastructure/config"
	"github.com/emiliopalmerini/agentlab/internal/pkg/logger"
	"github.com/emiliopalmerini/agentlab/internal/ports"
	"github.com/emiliopalmerini/agentlab/internal/rating"
	"github.com/emiliopalmerini/agentlab/internal/realtime"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *sql.DB
	Experiments ports.ExperimentRepository
	Battles     ports.BattleRepository
	Hub         *realtime.Hub
	Metrics     ports.MetricsExporter
	Rating      *rating.Service

	closeDB func() error
}

// appFactory builds the AppContext for a command. Tests replace it.
var appFactory = NewAppContext

// NewAppContext loads configuration from the environment and connects to the database.
func NewAppContext(ctx context.Context) (*AppContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := turso.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	app := newAppContext(cfg, log, db.DB, newMetricsExporter(ctx, cfg.Telemetry, log))
	app.closeDB = db.Close
	return app, nil
}

func newAppContext(cfg *config.Config, log *logger.Logger, db *sql.DB, metrics ports.MetricsExporter) *AppContext {
	repos := turso.NewRepositories(db)
	hub := realtime.NewHub(log)

	return &AppContext{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		Experiments: repos.Experiments,
		Battles:     repos.Battles,
		Hub:         hub,
		Metrics:     metrics,
		Rating: rating.NewService(repos.Experiments, repos.Battles, log,
			rating.WithMetrics(metrics),
			rating.WithChangePublisher(hub),
		),
	}
}

// newMetricsExporter returns the OTLP exporter when telemetry is enabled,
// falling back to a no-op exporter otherwise.
func newMetricsExporter(ctx context.Context, t config.Telemetry, log *logger.Logger) ports.MetricsExporter {
	if !t.Enabled {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, otel.FromTelemetry(t))
	if err != nil {
		log.Warn("metrics disabled", "error", err)
		return otel.NewNoOpExporter()
	}
	return exp
}

// Close flushes metrics and releases the database.
func (a *AppContext) Close(ctx context.Context) error {
	if a.Metrics != nil {
		if err := a.Metrics.Close(ctx); err != nil {
			a.Logger.Warn("failed to flush metrics", "error", err)
		}
	}
	if a.Logger != nil {
		a.Logger.Sync()
	}
	if a.closeDB != nil {
		return a.closeDB()
	}
	return nil
}
