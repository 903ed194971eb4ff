package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/emiliopalmerini/agentlab/internal/domain"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps well-known errors to status codes and logs the rest.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrExperimentNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSelfBattle):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
			return false
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// queryLimit parses ?limit=, falling back to def when absent or invalid.
func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// queryGoal returns the ?goal= filter, nil when absent.
func queryGoal(r *http.Request) *string {
	q := r.URL.Query()
	if !q.Has("goal") {
		return nil
	}
	goal := q.Get("goal")
	return &goal
}

type experimentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Goal      *string   `json:"goal"`
	GoalLabel string    `json:"goal_label"`
	Board     *string   `json:"board"`
	Prompt    string    `json:"prompt"`
	Context   string    `json:"context"`
	Output    string    `json:"output"`
	Notes     *string   `json:"notes"`
	Rating    *int      `json:"rating"`
	EloRating int       `json:"elo_rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toExperimentResponse(e domain.Experiment) experimentResponse {
	return experimentResponse{
		ID:        e.ID,
		Name:      e.Name,
		Goal:      e.Goal,
		GoalLabel: e.GoalLabel(),
		Board:     e.Board,
		Prompt:    e.Prompt,
		Context:   e.Context,
		Output:    e.Output,
		Notes:     e.Notes,
		Rating:    e.Rating,
		EloRating: e.EloRating,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toExperimentResponses(exps []domain.Experiment) []experimentResponse {
	out := make([]experimentResponse, 0, len(exps))
	for _, e := range exps {
		out = append(out, toExperimentResponse(e))
	}
	return out
}

type battleResponse struct {
	ID           string    `json:"id"`
	WinnerID     string    `json:"winner_id"`
	LoserID      string    `json:"loser_id"`
	WinnerBefore int       `json:"winner_before"`
	WinnerAfter  int       `json:"winner_after"`
	LoserBefore  int       `json:"loser_before"`
	LoserAfter   int       `json:"loser_after"`
	Goal         string    `json:"goal"`
	Board        string    `json:"board"`
	UserID       *string   `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func toBattleResponse(b domain.Battle) battleResponse {
	return battleResponse{
		ID:           b.ID,
		WinnerID:     b.WinnerID,
		LoserID:      b.LoserID,
		WinnerBefore: b.WinnerBefore,
		WinnerAfter:  b.WinnerAfter,
		LoserBefore:  b.LoserBefore,
		LoserAfter:   b.LoserAfter,
		Goal:         b.Goal,
		Board:        b.Board,
		UserID:       b.UserID,
		CreatedAt:    b.CreatedAt,
	}
}

func toBattleResponses(battles []domain.Battle) []battleResponse {
	out := make([]battleResponse, 0, len(battles))
	for _, b := range battles {
		out = append(out, toBattleResponse(b))
	}
	return out
}
