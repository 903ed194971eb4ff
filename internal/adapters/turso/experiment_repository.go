package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
	"github.com/emiliopalmerini/agentlab/internal/util"
)

const experimentColumns = `id, name, goal, board, prompt, context, output, notes, rating, elo_rating, created_at, updated_at`

type ExperimentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewExperimentRepository(db *sql.DB) *ExperimentRepository {
	return &ExperimentRepository{db: db, now: time.Now}
}

func (r *ExperimentRepository) Create(ctx context.Context, experiment *domain.Experiment) error {
	now := r.now()
	if experiment.CreatedAt.IsZero() {
		experiment.CreatedAt = now
	}
	if experiment.UpdatedAt.IsZero() {
		experiment.UpdatedAt = experiment.CreatedAt
	}
	if experiment.EloRating == 0 {
		experiment.EloRating = domain.DefaultEloRating
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO experiments (`+experimentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		experiment.ID,
		experiment.Name,
		util.NullStringPtr(experiment.Goal),
		util.NullStringPtr(experiment.Board),
		experiment.Prompt,
		experiment.Context,
		experiment.Output,
		util.NullStringPtr(experiment.Notes),
		util.NullIntPtr(experiment.Rating),
		experiment.EloRating,
		util.FormatTime(experiment.CreatedAt),
		util.FormatTime(experiment.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}
	return nil
}

func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id)
	e, err := scanExperiment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return &e, nil
}

// List returns experiments oldest first.
func (r *ExperimentRepository) List(ctx context.Context, opts ports.ListExperimentsOptions) ([]domain.Experiment, error) {
	return r.query(ctx, opts, "created_at ASC, id ASC")
}

// Leaderboard returns experiments strongest first.
func (r *ExperimentRepository) Leaderboard(ctx context.Context, opts ports.ListExperimentsOptions) ([]domain.Experiment, error) {
	return r.query(ctx, opts, "elo_rating DESC, created_at ASC")
}

func (r *ExperimentRepository) query(ctx context.Context, opts ports.ListExperimentsOptions, orderBy string) ([]domain.Experiment, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + experimentColumns + ` FROM experiments`)
	if opts.Goal != nil {
		if *opts.Goal == "" || *opts.Goal == domain.NoGoalLabel {
			sb.WriteString(` WHERE goal IS NULL OR goal = ''`)
		} else {
			sb.WriteString(` WHERE goal = ?`)
			args = append(args, *opts.Goal)
		}
	}
	sb.WriteString(` ORDER BY ` + orderBy)
	if opts.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	experiments := []domain.Experiment{}
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	return experiments, nil
}

func (r *ExperimentRepository) Update(ctx context.Context, experiment *domain.Experiment) error {
	experiment.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE experiments
		SET name = ?, goal = ?, board = ?, prompt = ?, context = ?, output = ?, notes = ?, rating = ?, updated_at = ?
		WHERE id = ?`,
		experiment.Name,
		util.NullStringPtr(experiment.Goal),
		util.NullStringPtr(experiment.Board),
		experiment.Prompt,
		experiment.Context,
		experiment.Output,
		util.NullStringPtr(experiment.Notes),
		util.NullIntPtr(experiment.Rating),
		util.FormatTime(experiment.UpdatedAt),
		experiment.ID,
	)
	return checkAffected(res, err, "update experiment")
}

// UpdateRating sets or, with a nil rating, clears the human rating.
func (r *ExperimentRepository) UpdateRating(ctx context.Context, id string, rating *int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE experiments SET rating = ?, updated_at = ? WHERE id = ?`,
		util.NullIntPtr(rating), util.FormatTime(r.now()), id,
	)
	return checkAffected(res, err, "update rating")
}

func (r *ExperimentRepository) UpdateEloRating(ctx context.Context, id string, score int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE experiments SET elo_rating = ?, updated_at = ? WHERE id = ?`,
		score, util.FormatTime(r.now()), id,
	)
	return checkAffected(res, err, "update elo rating")
}

func (r *ExperimentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = ?`, id)
	return checkAffected(res, err, "delete experiment")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExperiment(s scanner) (domain.Experiment, error) {
	var (
		e                    domain.Experiment
		goal, board, notes   sql.NullString
		rating               sql.NullInt64
		createdAt, updatedAt string
	)
	err := s.Scan(
		&e.ID, &e.Name, &goal, &board, &e.Prompt, &e.Context, &e.Output, &notes,
		&rating, &e.EloRating, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Experiment{}, err
	}

	e.Goal = util.NullStringToPtr(goal)
	e.Board = util.NullStringToPtr(board)
	e.Notes = util.NullStringToPtr(notes)
	e.Rating = util.NullInt64ToIntPtr(rating)
	e.CreatedAt = util.ParseTime(createdAt)
	e.UpdatedAt = util.ParseTime(updatedAt)
	return e, nil
}

func checkAffected(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: %w", op, domain.ErrExperimentNotFound)
	}
	return nil
}
