package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
	"github.com/emiliopalmerini/agentlab/internal/rating"
)

// UserIDHeader carries the acting user for battle submissions.
const UserIDHeader = "X-User-ID"

const defaultLeaderboardLimit = 50

type createBattleRequest struct {
	WinnerID string `json:"winner_id" validate:"required"`
	LoserID  string `json:"loser_id" validate:"required,nefield=WinnerID"`
	// Goal overrides the winner's goal label when set.
	Goal  *string `json:"goal" validate:"omitempty,max=500"`
	Board string  `json:"board" validate:"max=100"`
}

type battleResultResponse struct {
	WinnerRating    int             `json:"winner_rating"`
	LoserRating     int             `json:"loser_rating"`
	HistoryRecorded bool            `json:"history_recorded"`
	Battle          *battleResponse `json:"battle,omitempty"`
}

type leaderboardEntry struct {
	Rank int `json:"rank"`
	experimentResponse
}

type leaderboardResponse struct {
	Goal          *string            `json:"goal"`
	Ranking       []leaderboardEntry `json:"ranking"`
	RecentBattles []battleResponse   `json:"recent_battles"`
}

func (s *Server) handleCreateBattle(w http.ResponseWriter, r *http.Request) {
	var req createBattleRequest
	if !s.decode(w, r, &req) {
		return
	}

	var winner, loser *domain.Experiment
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		winner, err = s.lookupExperiment(ctx, req.WinnerID)
		return err
	})
	g.Go(func() error {
		var err error
		loser, err = s.lookupExperiment(ctx, req.LoserID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeDomainError(w, err)
		return
	}

	var userID *string
	if u := strings.TrimSpace(r.Header.Get(UserIDHeader)); u != "" {
		userID = &u
	}

	input := rating.NewBattleInput(*winner, *loser, req.Board, userID)
	if req.Goal != nil && *req.Goal != "" {
		input.Goal = *req.Goal
	}

	result, err := s.rating.RecordBattle(r.Context(), input)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := battleResultResponse{
		WinnerRating:    result.WinnerRating,
		LoserRating:     result.LoserRating,
		HistoryRecorded: result.Battle != nil,
	}
	if result.Battle != nil {
		b := toBattleResponse(*result.Battle)
		resp.Battle = &b
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBattles(w http.ResponseWriter, r *http.Request) {
	battles, err := s.battles.List(r.Context(), queryLimit(r, recentBattlesLimit))
	if err != nil {
		s.writeDomainError(w, fmt.Errorf("failed to list battles: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, toBattleResponses(battles))
}

// handleLeaderboard loads the ranking and the recent battles concurrently.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	goal := queryGoal(r)
	limit := queryLimit(r, defaultLeaderboardLimit)

	var (
		ranked  []domain.Experiment
		battles []domain.Battle
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		ranked, err = s.experiments.Leaderboard(ctx, ports.ListExperimentsOptions{Goal: goal, Limit: limit})
		if err != nil {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		battles, err = s.battles.List(ctx, recentBattlesLimit)
		if err != nil {
			return fmt.Errorf("failed to list battles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := leaderboardResponse{
		Goal:          goal,
		Ranking:       make([]leaderboardEntry, 0, len(ranked)),
		RecentBattles: toBattleResponses(filterBattlesByGoal(battles, goal)),
	}
	for i, e := range ranked {
		resp.Ranking = append(resp.Ranking, leaderboardEntry{Rank: i + 1, experimentResponse: toExperimentResponse(e)})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// lookupExperiment is GetByID with a missing record reported as an error.
func (s *Server) lookupExperiment(ctx context.Context, id string) (*domain.Experiment, error) {
	exp, err := s.experiments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrExperimentNotFound, id)
	}
	return exp, nil
}

func filterBattlesByGoal(battles []domain.Battle, goal *string) []domain.Battle {
	if goal == nil {
		return battles
	}
	label := domain.Experiment{Goal: goal}.GoalLabel()
	out := make([]domain.Battle, 0, len(battles))
	for _, b := range battles {
		if b.Goal == label {
			out = append(out, b)
		}
	}
	return out
}
