// Package rating records pairwise battles between experiments and moves
// their Elo scores.
package rating

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

// HistoryWriter appends battle records.
type HistoryWriter interface {
	Create(ctx context.Context, battle *domain.Battle) error
}

// BattleInput describes one declared outcome. UserID is the acting user,
// passed explicitly by the caller.
type BattleInput struct {
	WinnerID           string
	LoserID            string
	WinnerRatingBefore int
	LoserRatingBefore  int
	Goal               string
	Board              string
	UserID             *string
}

// NewBattleInput builds an input from the current state of both experiments.
// The goal defaults to the winner's goal label.
func NewBattleInput(winner, loser domain.Experiment, board string, userID *string) BattleInput {
	return BattleInput{
		WinnerID:           winner.ID,
		LoserID:            loser.ID,
		WinnerRatingBefore: winner.EloRating,
		LoserRatingBefore:  loser.EloRating,
		Goal:               winner.GoalLabel(),
		Board:              board,
		UserID:             userID,
	}
}

type Result struct {
	WinnerRating int
	LoserRating  int
	// Battle is the history record, nil if it could not be stored.
	Battle *domain.Battle
}

type Service struct {
	scores  ports.EloScoreWriter
	history HistoryWriter
	logger  ports.Logger
	metrics ports.MetricsExporter
	changes ports.ChangePublisher
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithMetrics(m ports.MetricsExporter) Option {
	return func(s *Service) { s.metrics = m }
}

func WithChangePublisher(p ports.ChangePublisher) Option {
	return func(s *Service) { s.changes = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(scores ports.EloScoreWriter, history HistoryWriter, logger ports.Logger, opts ...Option) *Service {
	s := &Service{
		scores:  scores,
		history: history,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordBattle writes the winner's new score, then the loser's, then the
// battle history, strictly in that order. A failed score write aborts and is
// returned. A failed history insert is logged and the call still succeeds:
// scores are authoritative, history is best effort.
//
// The three writes are not atomic; concurrent battles on the same experiment
// are last-write-wins.
func (s *Service) RecordBattle(ctx context.Context, in BattleInput) (*Result, error) {
	if in.WinnerID == in.LoserID {
		return nil, domain.ErrSelfBattle
	}

	winnerNew, loserNew := domain.UpdateElo(in.WinnerRatingBefore, in.LoserRatingBefore)

	if err := s.scores.UpdateEloRating(ctx, in.WinnerID, winnerNew); err != nil {
		return nil, fmt.Errorf("failed to update winner score: %w", err)
	}
	if err := s.scores.UpdateEloRating(ctx, in.LoserID, loserNew); err != nil {
		return nil, fmt.Errorf("failed to update loser score: %w", err)
	}
	s.publishScore(in.WinnerID, winnerNew)
	s.publishScore(in.LoserID, loserNew)

	result := &Result{WinnerRating: winnerNew, LoserRating: loserNew}

	battle := &domain.Battle{
		ID:           s.newID(),
		WinnerID:     in.WinnerID,
		LoserID:      in.LoserID,
		WinnerBefore: in.WinnerRatingBefore,
		WinnerAfter:  winnerNew,
		LoserBefore:  in.LoserRatingBefore,
		LoserAfter:   loserNew,
		Goal:         in.Goal,
		Board:        in.Board,
		UserID:       in.UserID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.history.Create(ctx, battle); err != nil {
		s.logger.Error("failed to record battle history",
			"winner", in.WinnerID, "loser", in.LoserID, "error", err)
		return result, nil
	}
	result.Battle = battle

	if s.metrics != nil {
		s.metrics.RecordBattle(ctx, battle)
	}
	if s.changes != nil {
		s.changes.Publish(ports.ChangeEvent{
			Table: "battles",
			Type:  ports.ChangeInsert,
			Record: map[string]string{
				"id":        battle.ID,
				"winner_id": battle.WinnerID,
				"loser_id":  battle.LoserID,
				"goal":      battle.Goal,
				"board":     battle.Board,
			},
		})
	}

	s.logger.Info("battle recorded",
		"battle", battle.ID,
		"winner", in.WinnerID, "winner_elo", winnerNew,
		"loser", in.LoserID, "loser_elo", loserNew)
	return result, nil
}

func (s *Service) publishScore(id string, score int) {
	if s.changes == nil {
		return
	}
	s.changes.Publish(ports.ChangeEvent{
		Table:  "experiments",
		Type:   ports.ChangeUpdate,
		Record: map[string]string{"id": id, "elo_rating": strconv.Itoa(score)},
	})
}
