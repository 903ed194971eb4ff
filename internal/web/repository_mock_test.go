package web

import (
	"context"
	"sync"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

// MockExperimentRepository is a mock implementation of ports.ExperimentRepository for testing.
type MockExperimentRepository struct {
	CreateFunc          func(ctx context.Context, e *domain.Experiment) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.Experiment, error)
	ListFunc            func(ctx context.Context, opts ports.ListExperimentsOptions) ([]domain.Experiment, error)
	UpdateFunc          func(ctx context.Context, e *domain.Experiment) error
	UpdateRatingFunc    func(ctx context.Context, id string, rating *int) error
	UpdateEloRatingFunc func(ctx context.Context, id string, score int) error
	DeleteFunc          func(ctx context.Context, id string) error
	LeaderboardFunc     func(ctx context.Context, opts ports.ListExperimentsOptions) ([]domain.Experiment, error)
}

func (m *MockExperimentRepository) Create(ctx context.Context, e *domain.Experiment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil
}

func (m *MockExperimentRepository) GetByID(ctx context.Context, id string) (*domain.Experiment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockExperimentRepository) List(ctx context.Context, opts ports.ListExperimentsOptions) ([]domain.Experiment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, opts)
	}
	return []domain.Experiment{}, nil
}

func (m *MockExperimentRepository) Update(ctx context.Context, e *domain.Experiment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, e)
	}
	return nil
}

func (m *MockExperimentRepository) UpdateRating(ctx context.Context, id string, rating *int) error {
	if m.UpdateRatingFunc != nil {
		return m.UpdateRatingFunc(ctx, id, rating)
	}
	return nil
}

func (m *MockExperimentRepository) UpdateEloRating(ctx context.Context, id string, score int) error {
	if m.UpdateEloRatingFunc != nil {
		return m.UpdateEloRatingFunc(ctx, id, score)
	}
	return nil
}

func (m *MockExperimentRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockExperimentRepository) Leaderboard(ctx context.Context, opts ports.ListExperimentsOptions) ([]domain.Experiment, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, opts)
	}
	return []domain.Experiment{}, nil
}

// MockBattleRepository is a mock implementation of ports.BattleRepository for testing.
type MockBattleRepository struct {
	CreateFunc           func(ctx context.Context, b *domain.Battle) error
	ListFunc             func(ctx context.Context, limit int) ([]domain.Battle, error)
	ListByExperimentFunc func(ctx context.Context, experimentID string, limit int) ([]domain.Battle, error)
}

func (m *MockBattleRepository) Create(ctx context.Context, b *domain.Battle) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	return nil
}

func (m *MockBattleRepository) List(ctx context.Context, limit int) ([]domain.Battle, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return []domain.Battle{}, nil
}

func (m *MockBattleRepository) ListByExperiment(ctx context.Context, experimentID string, limit int) ([]domain.Battle, error) {
	if m.ListByExperimentFunc != nil {
		return m.ListByExperimentFunc(ctx, experimentID, limit)
	}
	return []domain.Battle{}, nil
}

type captureMetrics struct {
	mu         sync.Mutex
	battles    []domain.Battle
	dashboards []domain.Summary
}

func (m *captureMetrics) RecordBattle(_ context.Context, b *domain.Battle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.battles = append(m.battles, *b)
}

func (m *captureMetrics) RecordDashboard(_ context.Context, s domain.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboards = append(m.dashboards, s)
}

func (m *captureMetrics) Close(context.Context) error { return nil }

var (
	_ ports.ExperimentRepository = (*MockExperimentRepository)(nil)
	_ ports.BattleRepository     = (*MockBattleRepository)(nil)
	_ ports.MetricsExporter      = (*captureMetrics)(nil)
)
