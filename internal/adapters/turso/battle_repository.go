package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/util"
)

const battleColumns = `id, winner_id, loser_id, winner_elo_before, winner_elo_after, loser_elo_before, loser_elo_after, goal, board, user_id, created_at`

type BattleRepository struct {
	db *sql.DB
}

func NewBattleRepository(db *sql.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

func (r *BattleRepository) Create(ctx context.Context, b *domain.Battle) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO battles (`+battleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.WinnerID, b.LoserID,
		b.WinnerBefore, b.WinnerAfter, b.LoserBefore, b.LoserAfter,
		b.Goal, b.Board, util.NullStringPtr(b.UserID),
		util.FormatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create battle: %w", err)
	}
	return nil
}

// List returns the most recent battles first.
func (r *BattleRepository) List(ctx context.Context, limit int) ([]domain.Battle, error) {
	return r.query(ctx,
		`SELECT `+battleColumns+` FROM battles ORDER BY created_at DESC LIMIT ?`,
		limitOrAll(limit))
}

func (r *BattleRepository) ListByExperiment(ctx context.Context, experimentID string, limit int) ([]domain.Battle, error) {
	return r.query(ctx,
		`SELECT `+battleColumns+` FROM battles WHERE winner_id = ? OR loser_id = ? ORDER BY created_at DESC LIMIT ?`,
		experimentID, experimentID, limitOrAll(limit))
}

func (r *BattleRepository) query(ctx context.Context, q string, args ...any) ([]domain.Battle, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	defer rows.Close()

	battles := []domain.Battle{}
	for rows.Next() {
		var (
			b         domain.Battle
			userID    sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&b.ID, &b.WinnerID, &b.LoserID,
			&b.WinnerBefore, &b.WinnerAfter, &b.LoserBefore, &b.LoserAfter,
			&b.Goal, &b.Board, &userID, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan battle: %w", err)
		}
		b.UserID = util.NullStringToPtr(userID)
		b.CreatedAt = util.ParseTime(createdAt)
		battles = append(battles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	return battles, nil
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
