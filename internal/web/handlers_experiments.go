package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

const recentBattlesLimit = 20

type createExperimentRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Goal    *string `json:"goal" validate:"omitempty,max=500"`
	Board   *string `json:"board" validate:"omitempty,max=100"`
	Prompt  string  `json:"prompt"`
	Context string  `json:"context"`
	Output  string  `json:"output"`
	Notes   *string `json:"notes"`
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

type rateExperimentRequest struct {
	// Rating nil clears the rating.
	Rating *int `json:"rating" validate:"omitempty,min=1,max=5"`
}

type experimentDetailResponse struct {
	Experiment experimentResponse `json:"experiment"`
	Battles    []battleResponse   `json:"battles"`
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := s.experiments.List(r.Context(), ports.ListExperimentsOptions{
		Goal:  queryGoal(r),
		Limit: queryLimit(r, 0),
	})
	if err != nil {
		s.writeDomainError(w, fmt.Errorf("failed to list experiments: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, toExperimentResponses(exps))
}

func (s *Server) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req createExperimentRequest
	if !s.decode(w, r, &req) {
		return
	}

	exp := &domain.Experiment{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Goal:      req.Goal,
		Board:     req.Board,
		Prompt:    req.Prompt,
		Context:   req.Context,
		Output:    req.Output,
		Notes:     req.Notes,
		Rating:    req.Rating,
		EloRating: domain.DefaultEloRating,
		CreatedAt: s.now(),
	}
	if err := s.experiments.Create(r.Context(), exp); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.publishExperiment(ports.ChangeInsert, *exp)
	s.logger.Info("experiment created", "id", exp.ID, "goal", exp.GoalLabel())
	s.writeJSON(w, http.StatusCreated, toExperimentResponse(*exp))
}

func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	exp, err := s.experiments.GetByID(ctx, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if exp == nil {
		s.writeDomainError(w, domain.ErrExperimentNotFound)
		return
	}

	battles, err := s.battles.ListByExperiment(ctx, id, recentBattlesLimit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, experimentDetailResponse{
		Experiment: toExperimentResponse(*exp),
		Battles:    toBattleResponses(battles),
	})
}

func (s *Server) handleRateExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req rateExperimentRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.experiments.UpdateRating(r.Context(), id, req.Rating); err != nil {
		s.writeDomainError(w, err)
		return
	}

	rating := ""
	if req.Rating != nil {
		rating = strconv.Itoa(*req.Rating)
	}
	s.publish(ports.ChangeEvent{
		Table:  "experiments",
		Type:   ports.ChangeUpdate,
		Record: map[string]string{"id": id, "rating": rating},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.experiments.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.publish(ports.ChangeEvent{
		Table:  "experiments",
		Type:   ports.ChangeDelete,
		Record: map[string]string{"id": id},
	})
	s.logger.Info("experiment deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) publishExperiment(t ports.ChangeType, e domain.Experiment) {
	record := map[string]string{
		"id":         e.ID,
		"name":       e.Name,
		"goal":       e.GoalLabel(),
		"elo_rating": strconv.Itoa(e.EloRating),
	}
	if e.Rating != nil {
		record["rating"] = strconv.Itoa(*e.Rating)
	}
	s.publish(ports.ChangeEvent{Table: "experiments", Type: t, Record: record})
}

func (s *Server) publish(e ports.ChangeEvent) {
	if s.hub != nil {
		s.hub.Publish(e)
	}
}
