package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/agentlab/internal/domain"
)

const (
	serviceName    = "agentlab"
	serviceVersion = "1.0.0"
)

// Exporter exports battle and dashboard metrics to an OTEL Collector.
type Exporter struct {
	provider        *sdkmetric.MeterProvider
	battlesTotal    metric.Int64Counter
	eloDelta        metric.Int64Histogram
	dashboardsTotal metric.Int64Counter
	experimentsHist metric.Int64Histogram
}

// NewExporter creates an OTLP/gRPC metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	battlesTotal, err := meter.Int64Counter(
		"agentlab_battles_total",
		metric.WithDescription("Total number of recorded battles"),
		metric.WithUnit("{battle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating battles counter: %w", err)
	}

	eloDelta, err := meter.Int64Histogram(
		"agentlab_battle_elo_delta",
		metric.WithDescription("Points gained by the winner of a battle"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating elo delta histogram: %w", err)
	}

	dashboardsTotal, err := meter.Int64Counter(
		"agentlab_dashboard_computations_total",
		metric.WithDescription("Number of dashboard recomputations"),
		metric.WithUnit("{computation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dashboard counter: %w", err)
	}

	experimentsHist, err := meter.Int64Histogram(
		"agentlab_dashboard_experiments",
		metric.WithDescription("Experiments included in a dashboard computation"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating experiments histogram: %w", err)
	}

	return &Exporter{
		provider:        provider,
		battlesTotal:    battlesTotal,
		eloDelta:        eloDelta,
		dashboardsTotal: dashboardsTotal,
		experimentsHist: experimentsHist,
	}, nil
}

// RecordBattle records a completed battle.
func (e *Exporter) RecordBattle(ctx context.Context, b *domain.Battle) {
	opt := metric.WithAttributes(
		attribute.String("goal", b.Goal),
		attribute.String("board", b.Board),
	)
	e.battlesTotal.Add(ctx, 1, opt)
	e.eloDelta.Record(ctx, int64(b.WinnerAfter-b.WinnerBefore), opt)
}

// RecordDashboard records one dashboard computation.
func (e *Exporter) RecordDashboard(ctx context.Context, s domain.Summary) {
	e.dashboardsTotal.Add(ctx, 1)
	e.experimentsHist.Record(ctx, int64(s.Total), metric.WithAttributes(
		attribute.Int("rated", s.Rated),
	))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
