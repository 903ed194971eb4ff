package ports

import (
	"context"

	"github.com/emiliopalmerini/agentlab/internal/domain"
)

// BattleRepository stores the append-only battle history.
type BattleRepository interface {
	Create(ctx context.Context, battle *domain.Battle) error
	List(ctx context.Context, limit int) ([]domain.Battle, error)
	ListByExperiment(ctx context.Context, experimentID string, limit int) ([]domain.Battle, error)
}
