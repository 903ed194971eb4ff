package ports

import (
	"context"

	"github.com/emiliopalmerini/agentlab/internal/domain"
)

type ExperimentRepository interface {
	Create(ctx context.Context, experiment *domain.Experiment) error
	GetByID(ctx context.Context, id string) (*domain.Experiment, error)
	List(ctx context.Context, opts ListExperimentsOptions) ([]domain.Experiment, error)
	Update(ctx context.Context, experiment *domain.Experiment) error
	UpdateRating(ctx context.Context, id string, rating *int) error
	Delete(ctx context.Context, id string) error
	Leaderboard(ctx context.Context, opts ListExperimentsOptions) ([]domain.Experiment, error)
	EloScoreWriter
}

// EloScoreWriter is the only write the rating updater performs on experiments.
type EloScoreWriter interface {
	UpdateEloRating(ctx context.Context, id string, score int) error
}

type ListExperimentsOptions struct {
	Goal  *string
	Limit int
}
